package job

import "github.com/talentflow/dataservice/internal/db"

// Reorder moves a job from one rank to another and shifts every job in
// between by one position, keeping ranks dense and unique. The moved job
// and all shifted siblings commit in a single transaction: no reader ever
// sees the list with a rank applied to one row but not the others.
//
// The stated positions are validated against the stored list before any
// write: fromOrder must be the moved job's current rank and toOrder must
// land inside 0..N-1, otherwise ErrOrderRange and nothing changes.
func (s *Store) Reorder(id string, fromOrder, toOrder int) error {
	if fromOrder == toOrder {
		j, err := s.Get(id)
		if err != nil {
			return err
		}
		if j.Order != fromOrder {
			return ErrOrderRange
		}
		return nil
	}

	return s.db.Update([]string{table}, func(tx *db.Tx) error {
		moved, err := getJob(tx, id)
		if err != nil {
			return err
		}
		if moved.Order != fromOrder {
			return ErrOrderRange
		}

		count := 0
		var shifted []*Job
		err = tx.Scan(table, func(jid string, _ []byte) error {
			count++
			if jid == id {
				return nil
			}
			j, err := getJob(tx, jid)
			if err != nil {
				return err
			}
			if fromOrder < toOrder {
				// forward move: (fromOrder, toOrder] steps back one
				if j.Order > fromOrder && j.Order <= toOrder {
					shifted = append(shifted, j)
				}
			} else {
				// backward move: [toOrder, fromOrder) steps forward one
				if j.Order >= toOrder && j.Order < fromOrder {
					shifted = append(shifted, j)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if toOrder < 0 || toOrder >= count {
			return ErrOrderRange
		}

		for _, j := range shifted {
			if err := tx.DeleteIndex(table, "order", orderValue(j.Order), j.ID); err != nil {
				return err
			}
			if fromOrder < toOrder {
				j.Order--
			} else {
				j.Order++
			}
			if err := putJob(tx, j); err != nil {
				return err
			}
			if err := tx.SetIndex(table, "order", orderValue(j.Order), j.ID); err != nil {
				return err
			}
		}

		if err := tx.DeleteIndex(table, "order", orderValue(moved.Order), moved.ID); err != nil {
			return err
		}
		moved.Order = toOrder
		if err := putJob(tx, moved); err != nil {
			return err
		}
		return tx.SetIndex(table, "order", orderValue(moved.Order), moved.ID)
	})
}

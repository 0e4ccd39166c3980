package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/talentflow/dataservice/internal/db"
)

const table = "jobs"

// orderValue zero-pads ranks so index scans come back in numeric order.
func orderValue(order int) string {
	return fmt.Sprintf("%08d", order)
}

// Store persists jobs and keeps their slug, status, and order indexes
// consistent with the records. All mutations run inside one store
// transaction on the jobs table.
type Store struct {
	db *db.Store
}

func NewStore(d *db.Store) *Store {
	return &Store{db: d}
}

func putJob(tx *db.Tx, j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return tx.Set(table, j.ID, data)
}

func getJob(tx *db.Tx, id string) (*Job, error) {
	data, err := tx.Get(table, id)
	if err != nil {
		return nil, err
	}
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &j, nil
}

func setJobIndexes(tx *db.Tx, j *Job) error {
	if err := tx.SetIndex(table, "slug", j.Slug, j.ID); err != nil {
		return err
	}
	if err := tx.SetIndex(table, "status", string(j.Status), j.ID); err != nil {
		return err
	}
	return tx.SetIndex(table, "order", orderValue(j.Order), j.ID)
}

func clearJobIndexes(tx *db.Tx, j *Job) error {
	if err := tx.DeleteIndex(table, "slug", j.Slug, j.ID); err != nil {
		return err
	}
	if err := tx.DeleteIndex(table, "status", string(j.Status), j.ID); err != nil {
		return err
	}
	return tx.DeleteIndex(table, "order", orderValue(j.Order), j.ID)
}

func slugTaken(tx *db.Tx, slug, selfID string) (bool, error) {
	ids, err := tx.IndexLookup(table, "slug", slug)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id != selfID {
			return true, nil
		}
	}
	return false, nil
}

// Create inserts a new active job ranked after every existing one.
func (s *Store) Create(title, slug string, tags []string) (*Job, error) {
	if tags == nil {
		tags = []string{}
	}
	j := &Job{
		ID:        uuid.NewString(),
		Title:     title,
		Slug:      slug,
		Status:    StatusActive,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.Update([]string{table}, func(tx *db.Tx) error {
		taken, err := slugTaken(tx, slug, j.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("slug %q: %w", slug, ErrSlugTaken)
		}

		count := 0
		if err := tx.Scan(table, func(string, []byte) error {
			count++
			return nil
		}); err != nil {
			return err
		}
		j.Order = count

		if err := putJob(tx, j); err != nil {
			return err
		}
		return setJobIndexes(tx, j)
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (s *Store) Get(id string) (*Job, error) {
	var j *Job
	err := s.db.View(func(tx *db.Tx) error {
		var err error
		j, err = getJob(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

// Update applies a partial patch. A slug change is checked against every
// other job before anything is written.
func (s *Store) Update(id string, patch Patch) (*Job, error) {
	var updated *Job
	err := s.db.Update([]string{table}, func(tx *db.Tx) error {
		j, err := getJob(tx, id)
		if err != nil {
			return err
		}
		if err := clearJobIndexes(tx, j); err != nil {
			return err
		}

		if patch.Title != nil {
			j.Title = *patch.Title
		}
		if patch.Slug != nil && *patch.Slug != j.Slug {
			taken, err := slugTaken(tx, *patch.Slug, id)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("slug %q: %w", *patch.Slug, ErrSlugTaken)
			}
			j.Slug = *patch.Slug
		}
		if patch.Status != nil {
			j.Status = *patch.Status
		}
		if patch.Tags != nil {
			j.Tags = *patch.Tags
		}

		if err := putJob(tx, j); err != nil {
			return err
		}
		if err := setJobIndexes(tx, j); err != nil {
			return err
		}
		updated = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListOptions narrows and pages a job listing.
type ListOptions struct {
	Status   Status
	Search   string
	Tags     []string
	Page     int
	PageSize int
}

// List returns one page of jobs in rank order plus the total match count
// before pagination.
func (s *Store) List(opts ListOptions) ([]*Job, int, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}

	var matched []*Job
	err := s.db.View(func(tx *db.Tx) error {
		// the order index scans in rank order, so no sort afterwards
		ids, err := tx.IndexScan(table, "order")
		if err != nil {
			return err
		}
		for _, id := range ids {
			j, err := getJob(tx, id)
			if err != nil {
				return err
			}
			if opts.Status != "" && j.Status != opts.Status {
				continue
			}
			if !j.Matches(opts.Search) {
				continue
			}
			if len(opts.Tags) > 0 && !j.HasTags(opts.Tags) {
				continue
			}
			matched = append(matched, j)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(matched)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*Job{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

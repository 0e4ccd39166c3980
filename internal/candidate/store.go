package candidate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talentflow/dataservice/internal/db"
)

const (
	tableCandidates = "candidates"
	tableTimelines  = "timelines"
)

// genesisBackdate is how far before "now" a synthesized first timeline
// entry is stamped, so real entries always sort after it.
const genesisBackdate = time.Hour

// Store persists candidates and their timelines. Stage changes and their
// audit entries commit together: a candidate is never observed on a new
// stage without the matching timeline row, or the other way around.
type Store struct {
	db  *db.Store
	now func() time.Time
}

func NewStore(d *db.Store) *Store {
	return &Store{db: d, now: func() time.Time { return time.Now().UTC() }}
}

func putCandidate(tx *db.Tx, c *Candidate) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}
	return tx.Set(tableCandidates, c.ID, data)
}

func getCandidate(tx *db.Tx, id string) (*Candidate, error) {
	data, err := tx.Get(tableCandidates, id)
	if err != nil {
		return nil, err
	}
	var c Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal candidate: %w", err)
	}
	return &c, nil
}

func appendEntry(tx *db.Tx, e *TimelineEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal timeline entry: %w", err)
	}
	if err := tx.Set(tableTimelines, e.ID, data); err != nil {
		return err
	}
	return tx.SetIndex(tableTimelines, "candidateId", e.CandidateID, e.ID)
}

// entryFor derives the audit row recorded when a candidate reaches a stage.
func entryFor(candidateID string, stage Stage, at time.Time) *TimelineEntry {
	ev := stageEvents[stage]
	return &TimelineEntry{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Timestamp:   at,
		Event:       ev.Event,
		Stage:       stage,
		Notes:       ev.Notes,
	}
}

// Create inserts a candidate and seeds the first timeline entry in the same
// transaction. An empty stage defaults to applied.
func (s *Store) Create(name, email, jobID string, stage Stage) (*Candidate, error) {
	if stage == "" {
		stage = StageApplied
	}
	if !stage.Valid() {
		return nil, fmt.Errorf("invalid stage %q", stage)
	}

	c := &Candidate{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		JobID:     jobID,
		Stage:     stage,
		CreatedAt: s.now(),
	}

	err := s.db.Update([]string{tableCandidates, tableTimelines}, func(tx *db.Tx) error {
		if err := putCandidate(tx, c); err != nil {
			return err
		}
		if err := setCandidateIndexes(tx, c); err != nil {
			return err
		}
		return appendEntry(tx, entryFor(c.ID, stage, c.CreatedAt))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func setCandidateIndexes(tx *db.Tx, c *Candidate) error {
	if err := tx.SetIndex(tableCandidates, "jobId", c.JobID, c.ID); err != nil {
		return err
	}
	if err := tx.SetIndex(tableCandidates, "stage", string(c.Stage), c.ID); err != nil {
		return err
	}
	return tx.SetIndex(tableCandidates, "email", c.Email, c.ID)
}

func (s *Store) Get(id string) (*Candidate, error) {
	var c *Candidate
	err := s.db.View(func(tx *db.Tx) error {
		var err error
		c, err = getCandidate(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetStage moves a candidate to a new stage and appends the derived audit
// entry, atomically. Setting the stage it is already on succeeds without
// writing anything.
func (s *Store) SetStage(id string, stage Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("invalid stage %q", stage)
	}

	return s.db.Update([]string{tableCandidates, tableTimelines}, func(tx *db.Tx) error {
		c, err := getCandidate(tx, id)
		if err != nil {
			return err
		}
		if c.Stage == stage {
			return nil
		}

		if err := tx.DeleteIndex(tableCandidates, "stage", string(c.Stage), c.ID); err != nil {
			return err
		}
		c.Stage = stage
		if err := putCandidate(tx, c); err != nil {
			return err
		}
		if err := tx.SetIndex(tableCandidates, "stage", string(c.Stage), c.ID); err != nil {
			return err
		}
		return appendEntry(tx, entryFor(c.ID, stage, s.now()))
	})
}

// Timeline returns a candidate's audit trail newest-first. A candidate with
// no rows yet gets one synthesized from its current stage, backdated an
// hour and persisted, so every later read sees the same history.
func (s *Store) Timeline(id string) ([]*TimelineEntry, error) {
	var entries []*TimelineEntry

	err := s.db.Update([]string{tableCandidates, tableTimelines}, func(tx *db.Tx) error {
		c, err := getCandidate(tx, id)
		if err != nil {
			return err
		}

		entries, err = readTimeline(tx, id)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return nil
		}

		genesis := entryFor(id, c.Stage, s.now().Add(-genesisBackdate))
		if err := appendEntry(tx, genesis); err != nil {
			return err
		}
		entries = []*TimelineEntry{genesis}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func readTimeline(tx *db.Tx, candidateID string) ([]*TimelineEntry, error) {
	ids, err := tx.IndexLookup(tableTimelines, "candidateId", candidateID)
	if err != nil {
		return nil, err
	}
	entries := make([]*TimelineEntry, 0, len(ids))
	for _, eid := range ids {
		data, err := tx.Get(tableTimelines, eid)
		if err != nil {
			return nil, err
		}
		var e TimelineEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal timeline entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// ListOptions narrows and pages a candidate listing. Callers doing
// client-side virtualization routinely ask for very large pages.
type ListOptions struct {
	JobID    string
	Stage    Stage
	Search   string
	Page     int
	PageSize int
}

func (s *Store) List(opts ListOptions) ([]*Candidate, int, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	q := strings.ToLower(strings.TrimSpace(opts.Search))

	var matched []*Candidate
	err := s.db.View(func(tx *db.Tx) error {
		return tx.Scan(tableCandidates, func(id string, data []byte) error {
			var c Candidate
			if err := json.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("unmarshal candidate: %w", err)
			}
			if opts.JobID != "" && c.JobID != opts.JobID {
				return nil
			}
			if opts.Stage != "" && c.Stage != opts.Stage {
				return nil
			}
			if q != "" &&
				!strings.Contains(strings.ToLower(c.Name), q) &&
				!strings.Contains(strings.ToLower(c.Email), q) {
				return nil
			}
			matched = append(matched, &c)
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (opts.Page - 1) * opts.PageSize
	if start >= total {
		return []*Candidate{}, total, nil
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

package assessment

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talentflow/dataservice/internal/db"
)

const (
	tableAssessments = "assessments"
	tableResponses   = "responses"
)

type Store struct {
	db *db.Store
}

func NewStore(d *db.Store) *Store {
	return &Store{db: d}
}

// Save validates and stores the question list for a job, replacing any
// previous version wholesale.
func (s *Store) Save(jobID string, questions []Question) (*Assessment, error) {
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []Question{}
	}

	a := &Assessment{JobID: jobID, Questions: questions}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment: %w", err)
	}

	err = s.db.Update([]string{tableAssessments}, func(tx *db.Tx) error {
		return tx.Set(tableAssessments, jobID, data)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the assessment for a job, or db.ErrNotFound when the job has
// never had one saved.
func (s *Store) Get(jobID string) (*Assessment, error) {
	var a *Assessment
	err := s.db.View(func(tx *db.Tx) error {
		data, err := tx.Get(tableAssessments, jobID)
		if err != nil {
			return err
		}
		a = &Assessment{}
		if err := json.Unmarshal(data, a); err != nil {
			return fmt.Errorf("unmarshal assessment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Submit appends a candidate's answer set for an assessment. The
// assessment id mirrors the job id.
func (s *Store) Submit(candidateID, assessmentID string, responses map[string]any, submittedAt time.Time) (*Response, error) {
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}
	if responses == nil {
		responses = map[string]any{}
	}

	r := &Response{
		ID:           uuid.NewString(),
		CandidateID:  candidateID,
		AssessmentID: assessmentID,
		Responses:    responses,
		SubmittedAt:  submittedAt,
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}

	err = s.db.Update([]string{tableResponses}, func(tx *db.Tx) error {
		if err := tx.Set(tableResponses, r.ID, data); err != nil {
			return err
		}
		if err := tx.SetIndex(tableResponses, "candidateId", r.CandidateID, r.ID); err != nil {
			return err
		}
		return tx.SetIndex(tableResponses, "assessmentId", r.AssessmentID, r.ID)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListResponses returns every submission for an assessment, oldest first.
func (s *Store) ListResponses(assessmentID string) ([]*Response, error) {
	var out []*Response
	err := s.db.View(func(tx *db.Tx) error {
		ids, err := tx.IndexLookup(tableResponses, "assessmentId", assessmentID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			data, err := tx.Get(tableResponses, id)
			if err != nil {
				return err
			}
			var r Response
			if err := json.Unmarshal(data, &r); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
			out = append(out, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

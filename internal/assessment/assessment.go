package assessment

import (
	"errors"
	"fmt"
	"time"
)

type QuestionType string

const (
	SingleChoice QuestionType = "single-choice"
	MultiChoice  QuestionType = "multi-choice"
	ShortText    QuestionType = "short-text"
	LongText     QuestionType = "long-text"
	Numeric      QuestionType = "numeric"
	File         QuestionType = "file"
)

func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultiChoice, ShortText, LongText, Numeric, File:
		return true
	}
	return false
}

// ErrInvalid marks a question list that cannot be saved.
var ErrInvalid = errors.New("invalid assessment")

// Validation is the optional rule set attached to a question.
type Validation struct {
	Required  bool `json:"required,omitempty"`
	Min       *int `json:"min,omitempty"`
	Max       *int `json:"max,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`
}

// Condition gates a question's visibility on another question's answer.
type Condition struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value,omitempty"`
}

type Question struct {
	ID         string       `json:"id"`
	Type       QuestionType `json:"type"`
	Label      string       `json:"label"`
	Options    []string     `json:"options,omitempty"`
	Validation *Validation  `json:"validation,omitempty"`
	Condition  *Condition   `json:"condition,omitempty"`
}

// Assessment is the ordered question list for one job. There is at most one
// per job and saves replace it wholesale.
type Assessment struct {
	JobID     string     `json:"jobId"`
	Questions []Question `json:"questions"`
}

// Response is one candidate's submitted answer set, keyed by question id.
type Response struct {
	ID           string         `json:"id"`
	CandidateID  string         `json:"candidateId"`
	AssessmentID string         `json:"assessmentId"`
	Responses    map[string]any `json:"responses"`
	SubmittedAt  time.Time      `json:"submittedAt"`
}

// validateQuestions checks question types, labels, choice options, and that
// every display condition points at a question earlier in the list.
func validateQuestions(questions []Question) error {
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrInvalid, i)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalid, q.ID)
		}
		if !q.Type.Valid() {
			return fmt.Errorf("%w: question %q has unknown type %q", ErrInvalid, q.ID, q.Type)
		}
		if q.Label == "" {
			return fmt.Errorf("%w: question %q has no label", ErrInvalid, q.ID)
		}
		if (q.Type == SingleChoice || q.Type == MultiChoice) && len(q.Options) == 0 {
			return fmt.Errorf("%w: choice question %q has no options", ErrInvalid, q.ID)
		}
		if q.Condition != nil && !seen[q.Condition.QuestionID] {
			return fmt.Errorf("%w: question %q depends on %q which does not precede it",
				ErrInvalid, q.ID, q.Condition.QuestionID)
		}
		seen[q.ID] = true
	}
	return nil
}

package candidate

import "time"

type Stage string

const (
	StageApplied  Stage = "applied"
	StageScreen   Stage = "screen"
	StageTech     Stage = "tech"
	StageOffer    Stage = "offer"
	StageHired    Stage = "hired"
	StageRejected Stage = "rejected"
)

func (s Stage) Valid() bool {
	switch s {
	case StageApplied, StageScreen, StageTech, StageOffer, StageHired, StageRejected:
		return true
	}
	return false
}

// Candidate is one applicant. JobID is a plain reference: the job may have
// been removed, and a dangling reference is not an error here.
type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	JobID     string    `json:"jobId"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"createdAt"`
}

// TimelineEntry is one row of a candidate's audit trail. Entries are only
// ever appended; the history of a candidate is never rewritten.
type TimelineEntry struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	Timestamp   time.Time `json:"timestamp"`
	Event       string    `json:"event"`
	Stage       Stage     `json:"stage,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// stageEvents maps each stage to the event label and notes recorded when a
// candidate lands on it.
var stageEvents = map[Stage]struct {
	Event string
	Notes string
}{
	StageApplied:  {"Applied", "Applied via company website."},
	StageScreen:   {"Moved to Screen", "Passed initial resume screen."},
	StageTech:     {"Moved to Tech", "Scheduled for technical interview."},
	StageOffer:    {"Offer Extended", "Offer letter being prepared."},
	StageHired:    {"Hired", "Offer accepted."},
	StageRejected: {"Rejected", "Not moving forward at this time."},
}

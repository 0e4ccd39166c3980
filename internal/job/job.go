package job

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// ErrSlugTaken is returned when a create or update would reuse another
// job's slug. Slugs are compared exact, case-sensitive.
var ErrSlugTaken = errors.New("slug already in use")

// ErrOrderRange is returned when a reorder's stated positions do not match
// the list: a stale fromOrder or a toOrder outside 0..N-1 would punch a
// hole in the rank sequence if applied.
var ErrOrderRange = errors.New("order out of range")

// Job is one posting in the board. Order is the job's rank in the list:
// across all jobs, orders are unique and contiguous from zero.
type Job struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Status    Status    `json:"status"`
	Tags      []string  `json:"tags"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasTags reports whether the job carries every requested tag,
// case-insensitively.
func (j *Job) HasTags(want []string) bool {
	have := make(map[string]bool, len(j.Tags))
	for _, t := range j.Tags {
		have[strings.ToLower(t)] = true
	}
	for _, t := range want {
		if !have[strings.ToLower(t)] {
			return false
		}
	}
	return true
}

// Matches reports whether the query is a case-insensitive substring of the
// job's title, slug, or any tag.
func (j *Job) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(j.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(j.Slug), q) {
		return true
	}
	for _, t := range j.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Patch carries a partial job update; nil fields are left untouched.
type Patch struct {
	Title  *string
	Slug   *string
	Status *Status
	Tags   *[]string
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusArchived
}

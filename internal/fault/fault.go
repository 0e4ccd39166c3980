package fault

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Class groups operations that share one latency/failure profile.
type Class string

const (
	ClassRead    Class = "read"    // lookups and listings
	ClassWrite   Class = "write"   // creates and field updates
	ClassReorder Class = "reorder" // rank moves
	ClassSubmit  Class = "submit"  // assessment saves and submissions
)

// Outcome is one planned call: wait Delay, then either proceed or fail
// before touching the store.
type Outcome struct {
	Delay time.Duration
	Fail  bool
}

// Injector decides, per operation class, how slow and how unreliable the
// simulated server is. Implementations must be safe for concurrent use.
type Injector interface {
	Plan(class Class) Outcome
}

// Profile is the latency window and failure probability for one class.
type Profile struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	FailRate float64
}

type Profiles map[Class]Profile

// DefaultProfiles mirrors the rates the UI's rollback handling was tuned
// against: reads never fail, writes fail one in ten, reorders one in five.
func DefaultProfiles() Profiles {
	return Profiles{
		ClassRead:    {MinDelay: 300 * time.Millisecond, MaxDelay: 500 * time.Millisecond, FailRate: 0},
		ClassWrite:   {MinDelay: 200 * time.Millisecond, MaxDelay: 1200 * time.Millisecond, FailRate: 0.1},
		ClassReorder: {MinDelay: 800 * time.Millisecond, MaxDelay: 800 * time.Millisecond, FailRate: 0.2},
		ClassSubmit:  {MinDelay: 800 * time.Millisecond, MaxDelay: 1000 * time.Millisecond, FailRate: 0},
	}
}

// Random draws outcomes from per-class profiles with a seedable generator,
// so a run can be replayed.
type Random struct {
	mu       sync.Mutex
	rng      *rand.Rand
	profiles Profiles
}

func NewRandom(seed int64, profiles Profiles) *Random {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Random{rng: rand.New(rand.NewSource(seed)), profiles: profiles}
}

func (r *Random) Plan(class Class) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[class]
	if !ok {
		return Outcome{}
	}
	delay := p.MinDelay
	if span := p.MaxDelay - p.MinDelay; span > 0 {
		delay += time.Duration(r.rng.Int63n(int64(span)))
	}
	return Outcome{
		Delay: delay,
		Fail:  p.FailRate > 0 && r.rng.Float64() < p.FailRate,
	}
}

// None injects nothing: zero delay, no failures. Used by tests and seeding.
type None struct{}

func (None) Plan(Class) Outcome { return Outcome{} }

// Scripted replays a fixed queue of outcomes and then succeeds instantly.
// Tests use it to force a failure on an exact call.
type Scripted struct {
	mu    sync.Mutex
	queue []Outcome
}

func NewScripted(outcomes ...Outcome) *Scripted {
	return &Scripted{queue: outcomes}
}

func (s *Scripted) Push(outcomes ...Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, outcomes...)
}

func (s *Scripted) Plan(Class) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Outcome{}
	}
	out := s.queue[0]
	s.queue = s.queue[1:]
	return out
}

// Sleep waits for the planned delay, returning early with the context's
// error if the caller gives up first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// fileProfile is the YAML shape of one class profile; durations are
// strings like "300ms".
type fileProfile struct {
	MinDelay string   `yaml:"minDelay"`
	MaxDelay string   `yaml:"maxDelay"`
	FailRate *float64 `yaml:"failRate"`
}

// LoadProfiles reads per-class profiles from a YAML file. Fields missing
// from the file keep their defaults, per field: overriding a class's delay
// window leaves its failure rate alone.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fault profile: %w", err)
	}

	var raw map[Class]fileProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fault profile: %w", err)
	}

	profiles := DefaultProfiles()
	for class, fp := range raw {
		p := profiles[class]
		if fp.MinDelay != "" {
			d, err := time.ParseDuration(fp.MinDelay)
			if err != nil {
				return nil, fmt.Errorf("class %s minDelay: %w", class, err)
			}
			p.MinDelay = d
		}
		if fp.MaxDelay != "" {
			d, err := time.ParseDuration(fp.MaxDelay)
			if err != nil {
				return nil, fmt.Errorf("class %s maxDelay: %w", class, err)
			}
			p.MaxDelay = d
		}
		if fp.FailRate != nil {
			p.FailRate = *fp.FailRate
		}
		profiles[class] = p
	}
	return profiles, nil
}

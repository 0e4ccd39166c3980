package seed

import (
	"testing"

	"github.com/talentflow/dataservice/internal/assessment"
	"github.com/talentflow/dataservice/internal/candidate"
	"github.com/talentflow/dataservice/internal/db"
	"github.com/talentflow/dataservice/internal/job"
)

func TestRun_PopulatesAllTables(t *testing.T) {
	d, err := db.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	jobs := job.NewStore(d)
	candidates := candidate.NewStore(d)
	assessments := assessment.NewStore(d)
	s := New(jobs, candidates, assessments)

	if err := s.Run(Options{Jobs: 6, Candidates: 20, Seed: 7}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	seeded, total, err := jobs.List(job.ListOptions{PageSize: 100})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if total != 6 {
		t.Errorf("expected 6 jobs, got %d", total)
	}
	// ranks must come out dense even with archived jobs mixed in
	for i, j := range seeded {
		if j.Order != i {
			t.Errorf("job %d has order %d", i, j.Order)
		}
	}

	cands, total, err := candidates.List(candidate.ListOptions{PageSize: 100})
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if total != 20 {
		t.Errorf("expected 20 candidates, got %d", total)
	}

	// every candidate went through the stage engine, so each has a timeline
	entries, err := candidates.Timeline(cands[0].ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) == 0 {
		t.Error("expected seeded candidate to have a timeline")
	}

	// the three fixed jobs carry assessments
	a, err := assessments.Get(seeded[0].ID)
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if len(a.Questions) == 0 {
		t.Error("expected seeded assessment questions")
	}
}

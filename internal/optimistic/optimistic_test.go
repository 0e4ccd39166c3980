package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/talentflow/dataservice/internal/assessment"
	"github.com/talentflow/dataservice/internal/candidate"
	"github.com/talentflow/dataservice/internal/db"
	"github.com/talentflow/dataservice/internal/fault"
	"github.com/talentflow/dataservice/internal/job"
	"github.com/talentflow/dataservice/internal/sim"
)

func newTestSim(t *testing.T, inject fault.Injector) *sim.Simulator {
	t.Helper()
	d, err := db.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return sim.New(job.NewStore(d), candidate.NewStore(d), assessment.NewStore(d), inject)
}

// boardOrder is the UI-side state a reorder mutates speculatively.
type boardOrder []string

func TestRun_KeepsSpeculativeStateOnSuccess(t *testing.T) {
	s := newTestSim(t, nil)
	ctx := context.Background()

	resX, _ := s.CreateJob(ctx, sim.CreateJobRequest{Title: "X", Slug: "x"})
	resY, _ := s.CreateJob(ctx, sim.CreateJobRequest{Title: "Y", Slug: "y"})
	x := resX.Body.(*job.Job)
	y := resY.Body.(*job.Job)

	view := NewView(boardOrder{x.ID, y.ID})
	status, err := Run(ctx, view, Command[boardOrder]{
		Apply: func(b boardOrder) boardOrder { return boardOrder{b[1], b[0]} },
		Call: func(ctx context.Context) (int, error) {
			res, err := s.ReorderJob(ctx, x.ID, sim.ReorderRequest{FromOrder: 0, ToOrder: 1})
			return res.Status, err
		},
	})
	if err != nil || status != 200 {
		t.Fatalf("run: status=%d err=%v", status, err)
	}

	if got := view.Get(); got[0] != y.ID || got[1] != x.ID {
		t.Errorf("expected speculative order kept, got %v", got)
	}

	// server agrees with the speculative view
	res, _ := s.GetJob(ctx, x.ID)
	if res.Body.(*job.Job).Order != 1 {
		t.Errorf("server state diverged from committed view")
	}
}

func TestRun_RollsBackOnInjectedFailure(t *testing.T) {
	script := fault.NewScripted()
	s := newTestSim(t, script)
	ctx := context.Background()

	resX, _ := s.CreateJob(ctx, sim.CreateJobRequest{Title: "X", Slug: "x"})
	resY, _ := s.CreateJob(ctx, sim.CreateJobRequest{Title: "Y", Slug: "y"})
	x := resX.Body.(*job.Job)
	y := resY.Body.(*job.Job)

	view := NewView(boardOrder{x.ID, y.ID})
	script.Push(fault.Outcome{Fail: true})

	status, err := Run(ctx, view, Command[boardOrder]{
		Apply: func(b boardOrder) boardOrder { return boardOrder{b[1], b[0]} },
		Call: func(ctx context.Context) (int, error) {
			res, err := s.ReorderJob(ctx, x.ID, sim.ReorderRequest{FromOrder: 0, ToOrder: 1})
			return res.Status, err
		},
	})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if status != 500 {
		t.Errorf("expected surfaced 500, got %d", status)
	}

	// the exact pre-mutation snapshot is back
	if got := view.Get(); got[0] != x.ID || got[1] != y.ID {
		t.Errorf("expected rollback to original order, got %v", got)
	}

	// and the server never moved anything either
	res, _ := s.GetJob(ctx, x.ID)
	if res.Body.(*job.Job).Order != 0 {
		t.Errorf("failed reorder must leave server state untouched")
	}
}

func TestRun_RollsBackOnStageChangeFailure(t *testing.T) {
	script := fault.NewScripted()
	s := newTestSim(t, script)
	ctx := context.Background()

	res, _ := s.CreateCandidate(ctx, sim.CreateCandidateRequest{Name: "Ada", Email: "ada@example.com", JobID: "job-1"})
	c := res.Body.(*candidate.Candidate)

	view := NewView(candidate.StageApplied)
	script.Push(fault.Outcome{Fail: true})

	_, err := Run(ctx, view, Command[candidate.Stage]{
		Apply: func(candidate.Stage) candidate.Stage { return candidate.StageOffer },
		Call: func(ctx context.Context) (int, error) {
			r, err := s.SetCandidateStage(ctx, c.ID, sim.SetStageRequest{Stage: "offer"})
			return r.Status, err
		},
	})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if view.Get() != candidate.StageApplied {
		t.Errorf("expected stage rolled back to applied, got %s", view.Get())
	}

	// no timeline entry was written for the failed transition
	tl, _ := s.GetTimeline(ctx, c.ID)
	entries := tl.Body.([]*candidate.TimelineEntry)
	if len(entries) != 1 {
		t.Errorf("expected only the creation entry, got %d", len(entries))
	}
}

func TestRun_PropagatesCallError(t *testing.T) {
	view := NewView(1)
	wantErr := errors.New("transport down")

	_, err := Run(context.Background(), view, Command[int]{
		Apply: func(n int) int { return n + 1 },
		Call:  func(context.Context) (int, error) { return 0, wantErr },
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected call error, got %v", err)
	}
	if view.Get() != 1 {
		t.Errorf("expected rollback on call error, got %d", view.Get())
	}
}

package sim

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/talentflow/dataservice/internal/assessment"
	"github.com/talentflow/dataservice/internal/candidate"
	"github.com/talentflow/dataservice/internal/db"
	"github.com/talentflow/dataservice/internal/fault"
	"github.com/talentflow/dataservice/internal/job"
)

func newTestSim(t *testing.T, inject fault.Injector) *Simulator {
	t.Helper()
	d, err := db.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return New(job.NewStore(d), candidate.NewStore(d), assessment.NewStore(d), inject)
}

func ctxBg() context.Context { return context.Background() }

func TestCreateJob(t *testing.T) {
	s := newTestSim(t, nil)

	res, err := s.CreateJob(ctxBg(), CreateJobRequest{Title: "Backend Engineer", Slug: "backend-eng", Tags: []string{"Go"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", res.Status, res.Body)
	}
	j := res.Body.(*job.Job)
	if j.Order != 0 || j.Status != job.StatusActive {
		t.Errorf("unexpected job: %+v", j)
	}
}

func TestCreateJob_MissingFields(t *testing.T) {
	s := newTestSim(t, nil)

	res, _ := s.CreateJob(ctxBg(), CreateJobRequest{Slug: "x"})
	if res.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing title, got %d", res.Status)
	}
	res, _ = s.CreateJob(ctxBg(), CreateJobRequest{Title: "X"})
	if res.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing slug, got %d", res.Status)
	}
}

func TestCreateJob_SlugConflictIs409(t *testing.T) {
	s := newTestSim(t, nil)

	s.CreateJob(ctxBg(), CreateJobRequest{Title: "A", Slug: "a"})
	res, _ := s.CreateJob(ctxBg(), CreateJobRequest{Title: "B", Slug: "a"})
	if res.Status != http.StatusConflict {
		t.Errorf("expected 409, got %d", res.Status)
	}
}

func TestCreateJob_InjectedFailureWritesNothing(t *testing.T) {
	s := newTestSim(t, fault.NewScripted(fault.Outcome{Fail: true}))

	res, err := s.CreateJob(ctxBg(), CreateJobRequest{Title: "A", Slug: "a"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Status)
	}

	list, _ := s.ListJobs(ctxBg(), ListJobsRequest{PageSize: 10})
	if page := list.Body.(JobPage); page.TotalCount != 0 {
		t.Errorf("failed create must not persist, got %d jobs", page.TotalCount)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	s := newTestSim(t, nil)

	res, _ := s.GetJob(ctxBg(), "missing")
	if res.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.Status)
	}
}

func TestListJobs_FiltersAndCounts(t *testing.T) {
	s := newTestSim(t, nil)

	s.CreateJob(ctxBg(), CreateJobRequest{Title: "Senior React Developer", Slug: "react", Tags: []string{"React", "Senior"}})
	s.CreateJob(ctxBg(), CreateJobRequest{Title: "Go Engineer", Slug: "go-eng", Tags: []string{"Go"}})

	res, _ := s.ListJobs(ctxBg(), ListJobsRequest{Search: "react", PageSize: 10})
	page := res.Body.(JobPage)
	if page.TotalCount != 1 || page.Jobs[0].Slug != "react" {
		t.Errorf("unexpected search result: %+v", page)
	}
	if page.Page != 1 || page.PageSize != 10 {
		t.Errorf("expected echoed pagination, got %+v", page)
	}

	res, _ = s.ListJobs(ctxBg(), ListJobsRequest{Tags: []string{"senior", "react"}, PageSize: 10})
	if res.Body.(JobPage).TotalCount != 1 {
		t.Errorf("expected tag superset match")
	}

	res, _ = s.ListJobs(ctxBg(), ListJobsRequest{Status: "paused"})
	if res.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", res.Status)
	}
}

func TestReorderJob_Failure500LeavesOrdersUntouched(t *testing.T) {
	script := fault.NewScripted()
	s := newTestSim(t, script)

	a, _ := s.CreateJob(ctxBg(), CreateJobRequest{Title: "A", Slug: "a"})
	s.CreateJob(ctxBg(), CreateJobRequest{Title: "B", Slug: "b"})
	id := a.Body.(*job.Job).ID

	script.Push(fault.Outcome{Fail: true})
	res, _ := s.ReorderJob(ctxBg(), id, ReorderRequest{FromOrder: 0, ToOrder: 1})
	if res.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Status)
	}

	got, _ := s.GetJob(ctxBg(), id)
	if got.Body.(*job.Job).Order != 0 {
		t.Errorf("failed reorder must not move the job")
	}
}

func TestReorderJob_Success(t *testing.T) {
	s := newTestSim(t, nil)

	a, _ := s.CreateJob(ctxBg(), CreateJobRequest{Title: "X", Slug: "x"})
	b, _ := s.CreateJob(ctxBg(), CreateJobRequest{Title: "Y", Slug: "y"})
	id := a.Body.(*job.Job).ID

	res, err := s.ReorderJob(ctxBg(), id, ReorderRequest{FromOrder: 0, ToOrder: 1})
	if err != nil || res.Status != http.StatusOK {
		t.Fatalf("reorder: %v status=%d", err, res.Status)
	}

	got, _ := s.GetJob(ctxBg(), id)
	if got.Body.(*job.Job).Order != 1 {
		t.Errorf("expected X at order 1")
	}
	got, _ = s.GetJob(ctxBg(), b.Body.(*job.Job).ID)
	if got.Body.(*job.Job).Order != 0 {
		t.Errorf("expected Y at order 0")
	}
}

func TestReorderJob_NotFound(t *testing.T) {
	s := newTestSim(t, nil)

	res, _ := s.ReorderJob(ctxBg(), "missing", ReorderRequest{FromOrder: 0, ToOrder: 1})
	if res.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.Status)
	}
}

func TestReorderJob_BadPositionsAre400(t *testing.T) {
	s := newTestSim(t, nil)

	a, _ := s.CreateJob(ctxBg(), CreateJobRequest{Title: "A", Slug: "a"})
	s.CreateJob(ctxBg(), CreateJobRequest{Title: "B", Slug: "b"})
	id := a.Body.(*job.Job).ID

	res, _ := s.ReorderJob(ctxBg(), id, ReorderRequest{FromOrder: 0, ToOrder: 5})
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range target, got %d", res.Status)
	}
	res, _ = s.ReorderJob(ctxBg(), id, ReorderRequest{FromOrder: 1, ToOrder: 0})
	if res.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for stale fromOrder, got %d", res.Status)
	}

	got, _ := s.GetJob(ctxBg(), id)
	if got.Body.(*job.Job).Order != 0 {
		t.Errorf("rejected reorder must not move the job")
	}
}

func TestCandidateFlow(t *testing.T) {
	s := newTestSim(t, nil)

	res, _ := s.CreateCandidate(ctxBg(), CreateCandidateRequest{Name: "Ada", Email: "ada@example.com", JobID: "job-1"})
	if res.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Status)
	}
	c := res.Body.(*candidate.Candidate)
	if c.Stage != candidate.StageApplied {
		t.Errorf("expected default applied stage")
	}

	res, _ = s.SetCandidateStage(ctxBg(), c.ID, SetStageRequest{Stage: "tech"})
	if res.Status != http.StatusOK {
		t.Fatalf("set stage: %d", res.Status)
	}

	res, _ = s.GetTimeline(ctxBg(), c.ID)
	entries := res.Body.([]*candidate.TimelineEntry)
	if len(entries) != 2 {
		t.Fatalf("expected 2 timeline entries, got %d", len(entries))
	}
	if entries[0].Stage != candidate.StageTech {
		t.Errorf("expected newest entry tech, got %s", entries[0].Stage)
	}
}

func TestSetCandidateStage_Validation(t *testing.T) {
	s := newTestSim(t, nil)

	res, _ := s.SetCandidateStage(ctxBg(), "missing", SetStageRequest{Stage: "tech"})
	if res.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.Status)
	}
	res, _ = s.SetCandidateStage(ctxBg(), "missing", SetStageRequest{Stage: "limbo"})
	if res.Status != http.StatusBadRequest {
		t.Errorf("expected 400 for bad stage, got %d", res.Status)
	}
}

func TestGetAssessment_NullWhenAbsent(t *testing.T) {
	s := newTestSim(t, nil)

	res, err := s.GetAssessment(ctxBg(), "job-1")
	if err != nil || res.Status != http.StatusOK {
		t.Fatalf("get: %v status=%d", err, res.Status)
	}
	if res.Body != nil {
		t.Errorf("expected null body, got %v", res.Body)
	}
}

func TestAssessmentRoundTrip(t *testing.T) {
	s := newTestSim(t, nil)

	questions := []assessment.Question{
		{ID: "q1", Type: assessment.SingleChoice, Label: "Remote ok?", Options: []string{"Yes", "No"}},
	}
	res, _ := s.SaveAssessment(ctxBg(), "job-1", SaveAssessmentRequest{Questions: questions})
	if res.Status != http.StatusOK {
		t.Fatalf("save: %d %v", res.Status, res.Body)
	}

	res, _ = s.GetAssessment(ctxBg(), "job-1")
	a := res.Body.(*assessment.Assessment)
	if len(a.Questions) != 1 || a.Questions[0].ID != "q1" {
		t.Errorf("unexpected assessment: %+v", a)
	}

	res, _ = s.SubmitResponse(ctxBg(), "job-1", SubmitResponseRequest{
		CandidateID: "cand-1",
		Responses:   map[string]any{"q1": "Yes"},
		SubmittedAt: time.Now().UTC(),
	})
	if res.Status != http.StatusCreated {
		t.Errorf("submit: expected 201, got %d", res.Status)
	}
}

func TestSaveAssessment_InvalidQuestionsIs400(t *testing.T) {
	s := newTestSim(t, nil)

	res, _ := s.SaveAssessment(ctxBg(), "job-1", SaveAssessmentRequest{
		Questions: []assessment.Question{{ID: "q1", Type: "rating", Label: "Rate"}},
	})
	if res.Status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", res.Status)
	}
}

func TestCancelledContextAbortsBeforeMutation(t *testing.T) {
	// A delay is planned, the caller has already given up: the call must
	// surface the context error and write nothing.
	script := fault.NewScripted(fault.Outcome{Delay: time.Second})
	s := newTestSim(t, script)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.CreateJob(ctx, CreateJobRequest{Title: "A", Slug: "a"})
	if err == nil {
		t.Fatal("expected context error")
	}

	list, _ := s.ListJobs(ctxBg(), ListJobsRequest{PageSize: 10})
	if list.Body.(JobPage).TotalCount != 0 {
		t.Error("cancelled call must not persist")
	}
}

// Package sim stands in for a remote recruiting API. Every operation plans
// an outcome with the injected fault strategy, waits out the simulated
// latency, and either fails with a server error before touching any store
// or delegates to the real engines. A failed call never leaves a partial
// write behind, which is what lets callers roll back speculative state
// safely.
package sim

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/talentflow/dataservice/internal/assessment"
	"github.com/talentflow/dataservice/internal/candidate"
	"github.com/talentflow/dataservice/internal/db"
	"github.com/talentflow/dataservice/internal/fault"
	"github.com/talentflow/dataservice/internal/job"
)

// Result is the REST-shaped outcome of one simulated call.
type Result struct {
	Status int
	Body   any
}

func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

type Simulator struct {
	jobs        *job.Store
	candidates  *candidate.Store
	assessments *assessment.Store
	inject      fault.Injector
}

func New(jobs *job.Store, candidates *candidate.Store, assessments *assessment.Store, inject fault.Injector) *Simulator {
	if inject == nil {
		inject = fault.None{}
	}
	return &Simulator{jobs: jobs, candidates: candidates, assessments: assessments, inject: inject}
}

// begin plans and applies the injected outcome for one call. It returns a
// non-nil Result when the call is already decided: an injected server
// error, before any store work.
func (s *Simulator) begin(ctx context.Context, class fault.Class) (*Result, error) {
	out := s.inject.Plan(class)
	if err := fault.Sleep(ctx, out.Delay); err != nil {
		return nil, err
	}
	if out.Fail {
		return &Result{Status: http.StatusInternalServerError, Body: errBody("simulated server error")}, nil
	}
	return nil, nil
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func successBody() map[string]bool {
	return map[string]bool{"success": true}
}

// statusFor maps domain errors onto REST statuses.
func statusFor(err error) Result {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return Result{Status: http.StatusNotFound, Body: errBody("not found")}
	case errors.Is(err, job.ErrSlugTaken):
		return Result{Status: http.StatusConflict, Body: errBody(err.Error())}
	case errors.Is(err, job.ErrOrderRange):
		return Result{Status: http.StatusBadRequest, Body: errBody(err.Error())}
	case errors.Is(err, assessment.ErrInvalid):
		return Result{Status: http.StatusBadRequest, Body: errBody(err.Error())}
	default:
		return Result{Status: http.StatusInternalServerError, Body: errBody(err.Error())}
	}
}

// --- jobs ---

type ListJobsRequest struct {
	Page     int
	PageSize int
	Status   string
	Search   string
	Tags     []string
}

type JobPage struct {
	Jobs       []*job.Job `json:"jobs"`
	TotalCount int        `json:"totalCount"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
}

func (s *Simulator) ListJobs(ctx context.Context, req ListJobsRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassRead); decided != nil || err != nil {
		return deref(decided), err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.Status != "" && !job.Status(req.Status).Valid() {
		return Result{Status: http.StatusBadRequest, Body: errBody("unknown status filter")}, nil
	}

	jobs, total, err := s.jobs.List(job.ListOptions{
		Status:   job.Status(req.Status),
		Search:   req.Search,
		Tags:     req.Tags,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return statusFor(err), nil
	}
	if jobs == nil {
		jobs = []*job.Job{}
	}
	return Result{Status: http.StatusOK, Body: JobPage{
		Jobs:       jobs,
		TotalCount: total,
		Page:       req.Page,
		PageSize:   req.PageSize,
	}}, nil
}

func (s *Simulator) GetJob(ctx context.Context, id string) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassRead); decided != nil || err != nil {
		return deref(decided), err
	}
	j, err := s.jobs.Get(id)
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: j}, nil
}

type CreateJobRequest struct {
	Title string   `json:"title"`
	Slug  string   `json:"slug"`
	Tags  []string `json:"tags,omitempty"`
}

func (s *Simulator) CreateJob(ctx context.Context, req CreateJobRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassWrite); decided != nil || err != nil {
		return deref(decided), err
	}
	if req.Title == "" {
		return Result{Status: http.StatusBadRequest, Body: errBody("title is required")}, nil
	}
	if req.Slug == "" {
		return Result{Status: http.StatusBadRequest, Body: errBody("slug is required")}, nil
	}

	j, err := s.jobs.Create(req.Title, req.Slug, req.Tags)
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusCreated, Body: j}, nil
}

type UpdateJobRequest struct {
	Title  *string   `json:"title,omitempty"`
	Slug   *string   `json:"slug,omitempty"`
	Status *string   `json:"status,omitempty"`
	Tags   *[]string `json:"tags,omitempty"`
}

func (s *Simulator) UpdateJob(ctx context.Context, id string, req UpdateJobRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassWrite); decided != nil || err != nil {
		return deref(decided), err
	}

	patch := job.Patch{Title: req.Title, Slug: req.Slug, Tags: req.Tags}
	if req.Status != nil {
		st := job.Status(*req.Status)
		if !st.Valid() {
			return Result{Status: http.StatusBadRequest, Body: errBody("unknown status")}, nil
		}
		patch.Status = &st
	}

	j, err := s.jobs.Update(id, patch)
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: j}, nil
}

type ReorderRequest struct {
	FromOrder int `json:"fromOrder"`
	ToOrder   int `json:"toOrder"`
}

func (s *Simulator) ReorderJob(ctx context.Context, id string, req ReorderRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassReorder); decided != nil || err != nil {
		return deref(decided), err
	}
	if err := s.jobs.Reorder(id, req.FromOrder, req.ToOrder); err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: successBody()}, nil
}

// --- candidates ---

type ListCandidatesRequest struct {
	JobID    string
	Stage    string
	Search   string
	Page     int
	PageSize int
}

func (s *Simulator) ListCandidates(ctx context.Context, req ListCandidatesRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassRead); decided != nil || err != nil {
		return deref(decided), err
	}
	if req.Stage != "" && !candidate.Stage(req.Stage).Valid() {
		return Result{Status: http.StatusBadRequest, Body: errBody("unknown stage filter")}, nil
	}

	list, _, err := s.candidates.List(candidate.ListOptions{
		JobID:    req.JobID,
		Stage:    candidate.Stage(req.Stage),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return statusFor(err), nil
	}
	if list == nil {
		list = []*candidate.Candidate{}
	}
	return Result{Status: http.StatusOK, Body: list}, nil
}

type CreateCandidateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	JobID string `json:"jobId"`
	Stage string `json:"stage,omitempty"`
}

func (s *Simulator) CreateCandidate(ctx context.Context, req CreateCandidateRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassWrite); decided != nil || err != nil {
		return deref(decided), err
	}
	if req.Name == "" || req.Email == "" {
		return Result{Status: http.StatusBadRequest, Body: errBody("name and email are required")}, nil
	}
	if req.Stage != "" && !candidate.Stage(req.Stage).Valid() {
		return Result{Status: http.StatusBadRequest, Body: errBody("unknown stage")}, nil
	}

	c, err := s.candidates.Create(req.Name, req.Email, req.JobID, candidate.Stage(req.Stage))
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusCreated, Body: c}, nil
}

func (s *Simulator) GetCandidate(ctx context.Context, id string) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassRead); decided != nil || err != nil {
		return deref(decided), err
	}
	c, err := s.candidates.Get(id)
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: c}, nil
}

type SetStageRequest struct {
	Stage string `json:"stage"`
}

func (s *Simulator) SetCandidateStage(ctx context.Context, id string, req SetStageRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassWrite); decided != nil || err != nil {
		return deref(decided), err
	}
	if !candidate.Stage(req.Stage).Valid() {
		return Result{Status: http.StatusBadRequest, Body: errBody("unknown stage")}, nil
	}
	if err := s.candidates.SetStage(id, candidate.Stage(req.Stage)); err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: successBody()}, nil
}

func (s *Simulator) GetTimeline(ctx context.Context, id string) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassRead); decided != nil || err != nil {
		return deref(decided), err
	}
	entries, err := s.candidates.Timeline(id)
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: entries}, nil
}

// --- assessments ---

func (s *Simulator) GetAssessment(ctx context.Context, jobID string) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassRead); decided != nil || err != nil {
		return deref(decided), err
	}
	a, err := s.assessments.Get(jobID)
	if errors.Is(err, db.ErrNotFound) {
		// a job without an assessment is a normal state, not a 404
		return Result{Status: http.StatusOK, Body: nil}, nil
	}
	if err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: a}, nil
}

type SaveAssessmentRequest struct {
	Questions []assessment.Question `json:"questions"`
}

func (s *Simulator) SaveAssessment(ctx context.Context, jobID string, req SaveAssessmentRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassSubmit); decided != nil || err != nil {
		return deref(decided), err
	}
	if _, err := s.assessments.Save(jobID, req.Questions); err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusOK, Body: successBody()}, nil
}

type SubmitResponseRequest struct {
	CandidateID string         `json:"candidateId"`
	Responses   map[string]any `json:"responses"`
	SubmittedAt time.Time      `json:"submittedAt,omitempty"`
}

func (s *Simulator) SubmitResponse(ctx context.Context, jobID string, req SubmitResponseRequest) (Result, error) {
	if decided, err := s.begin(ctx, fault.ClassSubmit); decided != nil || err != nil {
		return deref(decided), err
	}
	if req.CandidateID == "" {
		return Result{Status: http.StatusBadRequest, Body: errBody("candidateId is required")}, nil
	}
	if _, err := s.assessments.Submit(req.CandidateID, jobID, req.Responses, req.SubmittedAt); err != nil {
		return statusFor(err), nil
	}
	return Result{Status: http.StatusCreated, Body: successBody()}, nil
}

func deref(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}

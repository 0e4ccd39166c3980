package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/talentflow/dataservice/internal/sim"
)

type Handlers struct {
	sim *sim.Simulator
}

func NewHandlers(s *sim.Simulator) *Handlers {
	return &Handlers{sim: s}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// decode parses a JSON body into dst, rejecting fields the endpoint does
// not define.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeResult(w http.ResponseWriter, res sim.Result, err error) {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// client went away mid-call; nothing useful to write
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, res.Status, res.Body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// --- jobs ---

func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tags []string
	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	res, err := h.sim.ListJobs(r.Context(), sim.ListJobsRequest{
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Tags:     tags,
	})
	writeResult(w, res, err)
}

func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	res, err := h.sim.GetJob(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req sim.CreateJobRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.CreateJob(r.Context(), req)
	writeResult(w, res, err)
}

func (h *Handlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var req sim.UpdateJobRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.UpdateJob(r.Context(), chi.URLParam(r, "id"), req)
	writeResult(w, res, err)
}

func (h *Handlers) ReorderJob(w http.ResponseWriter, r *http.Request) {
	var req sim.ReorderRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.ReorderJob(r.Context(), chi.URLParam(r, "id"), req)
	writeResult(w, res, err)
}

// --- candidates ---

func (h *Handlers) ListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.sim.ListCandidates(r.Context(), sim.ListCandidatesRequest{
		JobID:    q.Get("jobId"),
		Stage:    q.Get("stage"),
		Search:   q.Get("search"),
		Page:     queryInt(r, "page"),
		PageSize: queryInt(r, "pageSize"),
	})
	writeResult(w, res, err)
}

func (h *Handlers) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req sim.CreateCandidateRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.CreateCandidate(r.Context(), req)
	writeResult(w, res, err)
}

func (h *Handlers) GetCandidate(w http.ResponseWriter, r *http.Request) {
	res, err := h.sim.GetCandidate(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

func (h *Handlers) SetCandidateStage(w http.ResponseWriter, r *http.Request) {
	var req sim.SetStageRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.SetCandidateStage(r.Context(), chi.URLParam(r, "id"), req)
	writeResult(w, res, err)
}

func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	res, err := h.sim.GetTimeline(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, res, err)
}

// --- assessments ---

func (h *Handlers) GetAssessment(w http.ResponseWriter, r *http.Request) {
	res, err := h.sim.GetAssessment(r.Context(), chi.URLParam(r, "jobId"))
	writeResult(w, res, err)
}

func (h *Handlers) SaveAssessment(w http.ResponseWriter, r *http.Request) {
	var req sim.SaveAssessmentRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.SaveAssessment(r.Context(), chi.URLParam(r, "jobId"), req)
	writeResult(w, res, err)
}

func (h *Handlers) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req sim.SubmitResponseRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	res, err := h.sim.SubmitResponse(r.Context(), chi.URLParam(r, "jobId"), req)
	writeResult(w, res, err)
}

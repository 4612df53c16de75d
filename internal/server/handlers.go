package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/magpress/magpress/pkg/errors"
	"github.com/magpress/magpress/pkg/export"
	"github.com/magpress/magpress/pkg/pipeline"
)

// exportRequest is the body of POST /api/exports.
type exportRequest struct {
	Template    string  `json:"template"`
	Kind        string  `json:"kind"`
	Pages       []int   `json:"pages"`
	Scale       float64 `json:"scale,omitempty"`
	Quality     int     `json:"quality,omitempty"`
	FPS         int     `json:"fps,omitempty"`
	Strategy    string  `json:"strategy,omitempty"`
	SkipMissing bool    `json:"skip_missing,omitempty"`
	Refresh     bool    `json:"refresh,omitempty"`

	// Async makes the request return immediately with a job ID to poll.
	Async bool `json:"async,omitempty"`
}

// exportResponse is the success payload of a synchronous export.
type exportResponse struct {
	JobID         string         `json:"job_id"`
	State         pipeline.State `json:"state"`
	Location      string         `json:"location,omitempty"`
	PageLocations []string       `json:"page_locations,omitempty"`
	Pages         []int          `json:"pages,omitempty"`
}

// handleCreateExport starts an export job for the authenticated identity.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity := identityFromContext(r.Context())
	scale := req.Scale
	if scale == 0 {
		scale = s.defaults.RenderScale
	}
	fps := req.FPS
	if fps == 0 {
		fps = s.defaults.VideoFPS
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.defaults.VideoStrategy
	}
	opts := pipeline.Options{
		Identity:     identity,
		Template:     req.Template,
		Kind:         export.Kind(req.Kind),
		Pages:        req.Pages,
		Scale:        scale,
		ShiftRatio:   s.defaults.ShiftRatio,
		AllowedFonts: s.defaults.AllowedFonts,
		FetchTimeout: s.defaults.FetchTimeout,
		Quality:      req.Quality,
		SkipMissing:  req.SkipMissing,
		Refresh:      req.Refresh,
		Logger:       s.logger,
		Video: export.VideoOptions{
			FPS:        fps,
			Strategy:   export.Strategy(strategy),
			FFmpegPath: s.defaults.FFmpegPath,
		},
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, statusForError(err), errors.UserMessage(err))
		return
	}

	jobID := uuid.NewString()
	job := s.jobs.Create(jobID, identity, req.Template)
	opts.OnState = func(st pipeline.State) {
		s.jobs.SetState(jobID, st)
	}

	if req.Async {
		go s.runJob(jobID, opts)
		writeJSON(w, http.StatusAccepted, exportResponse{
			JobID: jobID,
			State: job.State,
		})
		return
	}

	result, err := s.runner.Execute(r.Context(), opts)
	result.JobID = jobID
	s.jobs.Complete(jobID, result)
	if err != nil {
		writeError(w, statusForError(err), result.Error)
		return
	}

	writeJSON(w, http.StatusOK, exportResponse{
		JobID:         jobID,
		State:         result.State,
		Location:      result.Location,
		PageLocations: result.PageLocations,
		Pages:         result.Pages,
	})
}

// runJob executes an async job in the background. The request context is
// gone by then, so the job runs under the server's base context.
func (s *Server) runJob(jobID string, opts pipeline.Options) {
	result, err := s.runner.Execute(s.baseCtx, opts)
	result.JobID = jobID
	s.jobs.Complete(jobID, result)
	if err != nil {
		s.logger.Error("export job failed", "job", jobID, "err", err)
	}
}

// handleGetExport returns the state of one job.
func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := s.jobs.Get(id)
	if job == nil {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	if job.Identity != identityFromContext(r.Context()) {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleHealth is a liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForError maps pipeline error codes to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodePageMissing),
		errors.Is(err, errors.ErrCodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrCodeKeyExists):
		return http.StatusConflict
	case errors.Is(err, errors.ErrCodeUnauthorized),
		errors.Is(err, errors.ErrCodeSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrCodeCancelled):
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/thomas-vilte/svnreview/internal/errors"
	"github.com/thomas-vilte/svnreview/internal/models"
	"github.com/thomas-vilte/svnreview/internal/regex"
	"github.com/thomas-vilte/svnreview/internal/services"
)

// isoMillis matches JavaScript's Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(isoMillis),
	})
}

// routeMethods are the methods any registered route answers to.
var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}

// handleNotFound answers everything the mux has no route for. A path that exists under
// other methods gets 405 with an Allow header instead of 404.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if allowed := s.allowedMethods(r); len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeError(w, r, errors.ErrMethodNotAllowed.
			WithMessage(fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path)))
		return
	}
	err := errors.NewAppError(errors.TypeNotFound, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path), nil)
	writeError(w, r, err)
}

func (s *Server) allowedMethods(r *http.Request) []string {
	var allowed []string
	for _, m := range routeMethods {
		probe := r.Clone(r.Context())
		probe.Method = m
		if _, pattern := s.mux.Handler(probe); pattern != "" && pattern != "/" {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

// --- Repository ---

func (s *Server) handleRepositoryInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.repo.GetRepositoryInfo(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListCommits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var fields []errors.FieldError

	page, fe := positiveInt(q.Get("page"), "page", 1)
	fields = append(fields, fe...)
	pageSize, fe := positiveInt(q.Get("pageSize"), "pageSize", s.defaultPageSize)
	fields = append(fields, fe...)
	start, fe := revisionParam(q.Get("startRevision"), "startRevision")
	fields = append(fields, fe...)
	end, fe := revisionParam(q.Get("endRevision"), "endRevision")
	fields = append(fields, fe...)

	if len(fields) > 0 {
		writeError(w, r, validationError("Invalid query parameters", fields...))
		return
	}
	if pageSize > s.maxPageSize {
		pageSize = s.maxPageSize
	}

	filters := models.CommitFilters{
		Keyword:       q.Get("keyword"),
		Author:        q.Get("author"),
		StartRevision: start,
		EndRevision:   end,
	}
	resp, err := s.repo.GetCommits(r.Context(), filters, models.PaginationParams{Page: page, PageSize: pageSize})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommitDetail(w http.ResponseWriter, r *http.Request) {
	rev, err := pathRevision(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := s.repo.GetCommitDetail(r.Context(), rev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type diffResponse struct {
	Revision int64         `json:"revision"`
	Diffs    []models.Diff `json:"diffs"`
}

func (s *Server) handleCommitDiff(w http.ResponseWriter, r *http.Request) {
	rev, err := pathRevision(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	diffs, err := s.repo.GetCommitDiff(r.Context(), rev)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if diffs == nil {
		diffs = []models.Diff{}
	}
	writeJSON(w, http.StatusOK, diffResponse{Revision: rev, Diffs: diffs})
}

// --- Reviews ---

type reviewRequest struct {
	CommitIDs json.RawMessage `json:"commitIds"`
}

type reviewResponse struct {
	Success   bool                  `json:"success"`
	SessionID string                `json:"sessionId,omitempty"`
	Session   *models.ReviewSession `json:"session,omitempty"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := validateCommitIDs(req.CommitIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sessionID, err := s.reviews.ReviewCommits(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.reviews.GetReviewSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Success: true, SessionID: sessionID, Session: session})
}

// validateCommitIDs accepts a JSON array of 1 to MaxReviewIDs non-empty strings.
func validateCommitIDs(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, validationError("Validation error", errors.FieldError{Field: "commitIds", Message: "is required"})
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, validationError("Validation error", errors.FieldError{Field: "commitIds", Message: "must be an array of strings"})
	}

	var fields []errors.FieldError
	switch {
	case len(ids) == 0:
		fields = append(fields, errors.FieldError{Field: "commitIds", Message: "must contain at least 1 item"})
	case len(ids) > MaxReviewIDs:
		fields = append(fields, errors.FieldError{Field: "commitIds", Message: fmt.Sprintf("must contain at most %d items", MaxReviewIDs)})
	}
	for i, id := range ids {
		if id == "" {
			fields = append(fields, errors.FieldError{Field: fmt.Sprintf("commitIds[%d]", i), Message: "must not be empty"})
		}
	}
	if len(fields) > 0 {
		return nil, validationError("Validation error", fields...)
	}
	return ids, nil
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	limit, fe := positiveInt(r.URL.Query().Get("limit"), "limit", services.DefaultSessionListLimit)
	if len(fe) > 0 {
		writeError(w, r, validationError("Invalid query parameters", fe...))
		return
	}
	sessions, err := s.reviews.ListSessions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sessions": sessions})
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	session, err := s.reviews.GetReviewSession(r.Context(), r.PathValue("sessionId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{Success: true, Session: session})
}

// --- Rules ---

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.catalog.ListRules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "rules": rules})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var in services.NewRule
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	rule, err := s.catalog.CreateRule(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "rule": rule})
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	var in toggleRequest
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Enabled == nil {
		writeError(w, r, validationError("Validation error", errors.FieldError{Field: "enabled", Message: "is required"}))
		return
	}
	if err := s.catalog.SetRuleEnabled(r.Context(), r.PathValue("id"), *in.Enabled); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- Prompts ---

func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.catalog.ListPrompts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "prompts": prompts})
}

func (s *Server) handleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	var in services.NewPrompt
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	prompt, err := s.catalog.CreatePrompt(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "prompt": prompt})
}

func (s *Server) handleActivatePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.ActivatePrompt(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeletePrompt(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- Params ---

func pathRevision(r *http.Request) (int64, error) {
	raw := r.PathValue("revision")
	fieldErr := validationError("Invalid revision", errors.FieldError{Field: "revision", Message: "must be a positive integer"})
	if !regex.Revision.MatchString(raw) {
		return 0, fieldErr
	}
	rev, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || rev == 0 {
		return 0, fieldErr
	}
	return rev, nil
}

func positiveInt(raw, field string, def int) (int, []errors.FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, []errors.FieldError{{Field: field, Message: "must be a positive integer"}}
	}
	return n, nil
}

func revisionParam(raw, field string) (int64, []errors.FieldError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if !regex.Revision.MatchString(raw) {
		return 0, []errors.FieldError{{Field: field, Message: "must be a non-negative integer"}}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, []errors.FieldError{{Field: field, Message: "is out of range"}}
	}
	return n, nil
}

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/taskpilot-ai/taskpilot/internal/history"
)

// TaskRequest is the body of POST /api/tasks and /api/tasks/stream.
type TaskRequest struct {
	Task     string `json:"task"`
	ThreadID string `json:"thread_id,omitempty"`
}

// normalize validates the request and fills in a generated thread id
// when the client did not supply one. Returns an error message, empty
// when valid.
func (req *TaskRequest) normalize() string {
	if strings.TrimSpace(req.Task) == "" {
		return "task must not be empty"
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}
	return ""
}

// newRunID scopes one run within a thread. Each submission gets a fresh
// gateway conversation even when the client reuses a thread id.
func newRunID(threadID string) string {
	return threadID + "-" + uuid.NewString()
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.normalize(); msg != "" {
		s.errorResponse(w, http.StatusBadRequest, msg)
		return
	}

	// A client disconnect must not abort a task mid-flight: the run
	// completes and persists regardless, so every submission is
	// attempted exactly once.
	ctx := context.WithoutCancel(r.Context())

	res, err := s.runner.Run(ctx, req.Task, newRunID(req.ThreadID), nil)
	if err != nil {
		s.logger.Error("task run failed", "thread_id", req.ThreadID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "task processing failed: "+err.Error())
		return
	}

	rec := &history.TaskRecord{
		InputText:      req.Task,
		OutputText:     res.FinalOutput,
		ToolsUsed:      res.ToolsUsed,
		ExecutionSteps: res.Steps,
		ThreadID:       req.ThreadID,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Error("failed to persist task", "thread_id", req.ThreadID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to persist task: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, rec)
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	records, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if records == nil {
		records = []*history.TaskRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, map[string]any{
		"tasks":  records,
		"count":  len(records),
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid task id")
		return
	}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load task", "id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	if rec == nil {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, rec)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ok, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to delete task", "id", id, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	if !ok {
		s.errorResponse(w, http.StatusNotFound, "task not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, map[string]any{"deleted": id})
}

func (s *Server) handleTaskClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Clear(r.Context())
	if err != nil {
		s.logger.Error("failed to clear tasks", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to clear tasks")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, map[string]any{"deleted": n})
}

func (s *Server) handleThreadList(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("threadId")

	records, err := s.store.ListByThread(r.Context(), threadID)
	if err != nil {
		s.logger.Error("failed to list thread", "thread_id", threadID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list thread")
		return
	}
	if records == nil {
		records = []*history.TaskRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	s.writeJSON(w, map[string]any{
		"thread_id": threadID,
		"tasks":     records,
		"count":     len(records),
	})
}

func (s *Server) handleTaskExport(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ExportJSON(r.Context())
	if err != nil {
		s.logger.Error("failed to export tasks", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to export tasks")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.json"`)
	w.Write(out)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/taskpilot-ai/taskpilot/internal/history"
)

// StreamEvent is one SSE frame of a streaming task run.
type StreamEvent struct {
	EventType string `json:"event_type"`
	Data      any    `json:"data"`
}

// handleTaskStream runs a task while streaming progress over SSE. The
// client sees each trace step and tool use as it happens, then either a
// complete event carrying the persisted record or an error event.
func (s *Server) handleTaskStream(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := req.normalize(); msg != "" {
		s.errorResponse(w, http.StatusBadRequest, msg)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	rc := http.NewResponseController(w)

	emit := func(eventType string, data any) {
		s.writeSSE(w, StreamEvent{EventType: eventType, Data: data})
		flusher.Flush()

		// Tool loops can run long between frames.
		if err := rc.SetWriteDeadline(time.Now().Add(120 * time.Second)); err != nil {
			s.logger.Debug("failed to reset write deadline", "error", err)
		}
	}

	// Detached from the request context: a dropped stream consumer
	// does not cancel the run, which still completes and persists.
	ctx := context.WithoutCancel(r.Context())

	res, err := s.runner.Run(ctx, req.Task, newRunID(req.ThreadID), emit)
	if err != nil {
		s.logger.Error("streaming task run failed", "thread_id", req.ThreadID, "error", err)
		// Headers are already sent; report the failure in-band and stop.
		// Failed runs are not persisted.
		emit("error", err.Error())
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
		s.logger.Error("failed to persist streamed task", "thread_id", req.ThreadID, "error", err)
		emit("error", "failed to persist task: "+err.Error())
		return
	}

	emit("complete", map[string]any{"task_id": rec.ID})
}

func (s *Server) writeSSE(w http.ResponseWriter, evt StreamEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		s.logger.Debug("failed to marshal SSE event", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		s.logger.Debug("failed to write SSE event", "error", err)
	}
}

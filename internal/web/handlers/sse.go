package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// isSessionTerminal returns true if the session status is a terminal state
func isSessionTerminal(status SessionStatus) bool {
	switch status {
	case SessionStatusMatched, SessionStatusStopped, SessionStatusFailed, SessionStatusCancelled:
		return true
	}
	return false
}

// setupSSEConnection validates the request, finds the session, and sets up SSE headers.
// Returns the session, flusher, and true on success. On failure, writes an error response and returns zero values with false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request, lookup func(string) SSEJob) (SSEJob, http.Flusher, bool) {
	id := chi.URLParam(r, "sessionId")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return nil, nil, false
	}

	job := lookup(id)
	if job == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, nil, false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return job, flusher, true
}

// streamSSEEvents streams events from an SSEJob until it reaches a terminal state,
// the client disconnects, or the event channel closes.
// The first event is always a "status" snapshot.
func streamSSEEvents(w http.ResponseWriter, r *http.Request, lookup func(string) SSEJob) {
	job, flusher, ok := setupSSEConnection(w, r, lookup)
	if !ok {
		return
	}

	eventCh := job.AddListener()
	defer job.RemoveListener(eventCh)

	sendSSEEvent(w, flusher, "status", job.Snapshot())
	if isSessionTerminal(job.GetStatus()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if isTerminalEvent(event.Type) {
				return
			}
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

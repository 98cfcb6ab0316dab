package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/facecheck/internal/constants"
	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

// Session event types
const (
	EventStarted      = "started"
	EventFrame        = "frame"
	EventMatched      = "matched"
	EventStopped      = "stopped"
	EventSessionError = "session_error"
)

func isTerminalEvent(eventType string) bool {
	return eventType == EventMatched || eventType == EventStopped || eventType == EventSessionError
}

// FrameEvent is the payload of a "frame" event.
type FrameEvent struct {
	Index   int                   `json:"index"`
	Image   []byte                `json:"image"`
	Message string                `json:"message"`
	Matched bool                  `json:"matched"`
	Labels  []string              `json:"labels"`
	Faces   []facematch.FaceMatch `json:"faces"`
}

// SessionsHandler handles live recognition sessions.
//
// A session nobody listens to for idleTimeout is cancelled so it cannot pin the
// camera, and a finished session is forgotten after retention.
type SessionsHandler struct {
	service        *recognition.Service
	sessionManager *SessionManager
	maxFrames      int
	idleTimeout    time.Duration
	retention      time.Duration
}

// NewSessionsHandler creates a new sessions handler.
// maxFrames caps every session's watch loop, 0 for no limit.
func NewSessionsHandler(svc *recognition.Service, sm *SessionManager, maxFrames int) *SessionsHandler {
	return &SessionsHandler{
		service:        svc,
		sessionManager: sm,
		maxFrames:      maxFrames,
		idleTimeout:    constants.SessionIdleTimeout,
		retention:      constants.SessionRetention,
	}
}

// Start starts a new live session
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	folder, err := readFolder(w, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if folder == "" {
		respondError(w, http.StatusBadRequest, errMissingFolder)
		return
	}

	// Validate the path up front so an obviously bad request fails synchronously
	if _, err := recognition.ResolveGalleryDir(h.service.GalleryRoot(), folder); err != nil {
		respondServiceError(w, err)
		return
	}

	// The session outlives the request, so it gets its own context
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	sess := h.sessionManager.CreateSession(id, folder, cancel)

	go h.runSession(ctx, sess)
	h.cancelWhenIdle(sess)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"session_id": id,
		"status":     string(SessionStatusPending),
	})
}

// Status returns the state of a live session
func (h *SessionsHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// Events streams session events via SSE
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	var sess *LiveSession
	streamSSEEvents(w, r, func(id string) SSEJob {
		sess = h.sessionManager.GetSession(id)
		if sess == nil {
			return nil
		}
		return sess
	})
	if sess != nil {
		h.cancelWhenIdle(sess)
	}
}

// cancelWhenIdle cancels sess if it still has no listener after idleTimeout.
// A client that reconnects in the meantime keeps the session alive.
func (h *SessionsHandler) cancelWhenIdle(sess *LiveSession) {
	if h.idleTimeout <= 0 {
		return
	}
	time.AfterFunc(h.idleTimeout, func() {
		if sess.ListenerCount() > 0 || isSessionTerminal(sess.GetStatus()) {
			return
		}
		log.Printf("Session %s has no listeners, stopping", sess.id)
		sess.Cancel()
	})
}

// Stop cancels a live session
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request) (*LiveSession, bool) {
	id := chi.URLParam(r, "sessionId")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return nil, false
	}
	sess := h.sessionManager.GetSession(id)
	if sess == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// runSession runs the watch loop in the background
func (h *SessionsHandler) runSession(ctx context.Context, sess *LiveSession) {
	defer h.expire(sess)
	defer sess.Cancel()

	sess.setStatus(SessionStatusRunning)
	sess.SendEvent(JobEvent{Type: EventStarted, Message: "Session started"})

	report, err := h.service.Watch(ctx, sess.folder, recognition.WatchOptions{MaxFrames: h.maxFrames},
		func(u *recognition.Update) error {
			img, err := h.service.EncodeFrame(u.Result.Frame)
			if err != nil {
				return err
			}
			sess.recordFrame(u.Index, u.Result.Message, u.Result.Labels)
			sess.SendEvent(JobEvent{Type: EventFrame, Data: FrameEvent{
				Index:   u.Index,
				Image:   img,
				Message: u.Result.Message,
				Matched: u.Result.Matched,
				Labels:  u.Result.Labels,
				Faces:   u.Result.Faces,
			}})
			return nil
		})
	if err != nil {
		log.Printf("Session %s failed: %s", sess.id, sanitizeForLog(err.Error()))
		sess.finish(SessionStatusFailed, report, err.Error())
		sess.SendEvent(JobEvent{Type: EventSessionError, Message: err.Error()})
		return
	}

	if report.Stop == recognition.StopMatched {
		sess.finish(SessionStatusMatched, report, "")
		sess.SendEvent(JobEvent{Type: EventMatched, Message: report.Last.Message, Data: sess.Snapshot()})
		return
	}

	status := SessionStatusStopped
	if report.Stop == recognition.StopCancelled {
		status = SessionStatusCancelled
	}
	sess.finish(status, report, "")
	sess.SendEvent(JobEvent{Type: EventStopped, Message: string(report.Stop), Data: sess.Snapshot()})
}

// expire removes a finished session once its retention has passed.
func (h *SessionsHandler) expire(sess *LiveSession) {
	if h.retention <= 0 {
		return
	}
	time.AfterFunc(h.retention, func() {
		h.sessionManager.DeleteSession(sess.id)
	})
}

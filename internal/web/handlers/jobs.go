package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/kozaktomas/facecheck/internal/constants"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

// SessionStatus represents the status of a live recognition session.
type SessionStatus string

// SessionStatus constants define the lifecycle states of a live session.
const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusMatched   SessionStatus = "matched"
	SessionStatusStopped   SessionStatus = "stopped"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// LiveSession is a background watch loop streaming frames to SSE listeners.
type LiveSession struct {
	EventBroadcaster

	id          string
	folder      string
	status      SessionStatus
	frames      int
	gallerySize int
	message     string
	labels      []string
	stopReason  recognition.StopReason
	err         string
	startedAt   time.Time
	completedAt *time.Time
}

// SessionSnapshot is the JSON view of a live session.
type SessionSnapshot struct {
	ID          string        `json:"id"`
	Folder      string        `json:"known_faces_folder"`
	Status      SessionStatus `json:"status"`
	Frames      int           `json:"frames"`
	GallerySize int           `json:"gallery_size"`
	Message     string        `json:"message,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
	StopReason  string        `json:"stop_reason,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// ID returns the session ID.
func (s *LiveSession) ID() string {
	return s.id
}

// GetStatus returns the current session status (implements SSEJob).
func (s *LiveSession) GetStatus() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a consistent copy of the session state.
func (s *LiveSession) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{
		ID:          s.id,
		Folder:      s.folder,
		Status:      s.status,
		Frames:      s.frames,
		GallerySize: s.gallerySize,
		Message:     s.message,
		Labels:      append([]string(nil), s.labels...),
		StopReason:  string(s.stopReason),
		Error:       s.err,
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
	}
}

func (s *LiveSession) setStatus(status SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *LiveSession) recordFrame(index int, message string, labels []string) {
	s.mu.Lock()
	s.frames = index
	s.message = message
	s.labels = labels
	s.mu.Unlock()
}

func (s *LiveSession) finish(status SessionStatus, report *recognition.WatchReport, errMsg string) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.err = errMsg
	s.completedAt = &now
	if report != nil {
		s.frames = report.Frames
		s.stopReason = report.Stop
		if report.Gallery != nil {
			s.gallerySize = report.Gallery.Len()
		}
	}
}

// JobEvent represents an event from a session.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async work.
// Embed this in session structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	cancel    context.CancelFunc
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// ListenerCount returns the number of attached listeners.
func (b *EventBroadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Cancel cancels the running work via its context.
// The runner reports the final state once the loop has stopped.
func (b *EventBroadcaster) Cancel() {
	if b.cancel != nil {
		b.cancel()
	}
}

// SSEJob is the interface required by streamSSEEvents to stream session events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() SessionStatus
	Snapshot() SessionSnapshot
}

// SessionManager manages live sessions.
type SessionManager struct {
	sessions map[string]*LiveSession
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*LiveSession),
	}
}

// CreateSession registers a pending session. cancel stops its watch loop.
func (m *SessionManager) CreateSession(id, folder string, cancel context.CancelFunc) *LiveSession {
	sess := &LiveSession{
		id:        id,
		folder:    folder,
		status:    SessionStatusPending,
		startedAt: time.Now(),
	}
	sess.cancel = cancel

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	return sess
}

// GetSession retrieves a session by ID.
func (m *SessionManager) GetSession(id string) *LiveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// DeleteSession removes a session.
func (m *SessionManager) DeleteSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// ListSessions returns all sessions.
func (m *SessionManager) ListSessions() []*LiveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessions := make([]*LiveSession, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

// CancelAll stops every session that has not finished yet.
func (m *SessionManager) CancelAll() {
	for _, sess := range m.ListSessions() {
		if !isSessionTerminal(sess.GetStatus()) {
			sess.Cancel()
		}
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facecheck/internal/annotate"
	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/embedding"
	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/gallery"
	"github.com/kozaktomas/facecheck/internal/mock"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

var (
	aliceRef      = color.RGBA{R: 200, A: 255}
	aliceFrame    = color.RGBA{R: 201, G: 1, A: 255}
	strangerFrame = color.RGBA{G: 201, A: 255}
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Camera: config.CameraConfig{Backend: config.CameraBackendGoCV, Device: "0", CaptureTimeout: time.Second},
		Face:   config.FaceConfig{Backend: config.FaceBackendHTTP, Tolerance: 0.6},
	}
}

// testService builds a recognition service over a one-entry gallery ("alice") and returns
// it with the gallery directory.
func testService(t *testing.T, cam *mock.MockCamera, opts recognition.Options) (*recognition.Service, string) {
	t.Helper()

	dir := t.TempDir()
	if err := mock.WritePNG(filepath.Join(dir, "alice.png"), mock.MarkerImage(aliceRef, 16, 16)); err != nil {
		t.Fatalf("failed to write gallery image: %v", err)
	}

	box := embedding.Box{Top: 4, Right: 28, Bottom: 28, Left: 4}
	enc := mock.NewMockEncoder()
	enc.SetFaces(aliceRef, embedding.Face{Box: box, Descriptor: embedding.Descriptor{0, 0}})
	enc.SetFaces(aliceFrame, embedding.Face{Box: box, Descriptor: embedding.Descriptor{0.2, 0}})
	enc.SetFaces(strangerFrame, embedding.Face{Box: box, Descriptor: embedding.Descriptor{3, 3}})

	if opts.CaptureTimeout == 0 {
		opts.CaptureTimeout = time.Second
	}
	svc := recognition.New(
		gallery.NewLoader(enc, gallery.Options{}),
		facematch.NewMatcher(enc, annotate.New(annotate.DefaultStyle()), 0.6),
		cam.Opener(),
		opts,
	)
	return svc, dir
}

// jsonRequest creates a request with a JSON body
func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// folderBody returns a JSON body naming a gallery folder
func folderBody(t *testing.T, folder string) string {
	t.Helper()
	data, err := json.Marshal(FolderRequest{KnownFacesFolder: folder})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return string(data)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// waitForStatus polls a session until it reaches a terminal state
func waitForStatus(t *testing.T, sess *LiveSession) SessionStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if status := sess.GetStatus(); isSessionTerminal(status) {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %s did not finish, status %s", sess.ID(), sess.GetStatus())
	return ""
}

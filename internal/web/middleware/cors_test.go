package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORS_AllowedOrigins(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://kiosk.example.com, https://ops.example.com")

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://kiosk.example.com", true},
		{"https://ops.example.com", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:8080", true},
		{"https://evil.example.com", false},
		{"http://localhost.evil.example.com", false},
		{"ftp://localhost", false},
		{"", false},
	}

	handler := CORS()(okHandler())
	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/health", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			got := recorder.Header().Get("Access-Control-Allow-Origin")
			if tc.allowed && got != tc.origin {
				t.Errorf("expected origin %q to be allowed, got %q", tc.origin, got)
			}
			if !tc.allowed && got != "" {
				t.Errorf("expected origin %q to be rejected, got %q", tc.origin, got)
			}
			if recorder.Code != http.StatusTeapot {
				t.Errorf("expected request to reach handler, got status %d", recorder.Code)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS()(okHandler())

	tests := []struct {
		name     string
		origin   string
		expected int
	}{
		{"allowed origin", "http://localhost:3000", http.StatusNoContent},
		{"foreign origin", "https://evil.example.com", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("OPTIONS", "/api/v1/sessions", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", "DELETE")
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != tc.expected {
				t.Fatalf("expected preflight status %d, got %d", tc.expected, recorder.Code)
			}
			methods := recorder.Header().Get("Access-Control-Allow-Methods")
			if tc.expected == http.StatusNoContent && !strings.Contains(methods, "DELETE") {
				t.Errorf("expected DELETE in allowed methods, got %q", methods)
			}
			if tc.expected == http.StatusForbidden && methods != "" {
				t.Errorf("expected no CORS headers for a foreign origin, got %q", methods)
			}
			if recorder.Header().Get("Access-Control-Allow-Credentials") != "" {
				t.Error("expected credentials never to be allowed")
			}
		})
	}
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	recorder := httptest.NewRecorder()
	CORS()(okHandler()).ServeHTTP(recorder, httptest.NewRequest("OPTIONS", "/api/v1/health", nil))

	if recorder.Code != http.StatusTeapot {
		t.Errorf("expected non-preflight OPTIONS to reach the handler, got %d", recorder.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	csp := recorder.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "img-src 'self' data:") {
		t.Errorf("expected CSP to allow data: images, got %q", csp)
	}
	if recorder.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected nosniff header")
	}
	if recorder.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options DENY")
	}
}

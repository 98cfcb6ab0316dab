package embedding

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func solidImage(c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"too short", []byte{0xFF, 0xD8}, "application/octet-stream"},
		{"unknown", []byte("plaintext"), "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMIMEType(tt.data); got != tt.expected {
				t.Errorf("detectMIMEType() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestClient_Encode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/embed/face" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			http.Error(w, "unexpected content type "+ct, http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(FaceResponse{
			FacesCount: 3,
			Faces: []FaceDetection{
				{FaceIndex: 0, Dim: 2, Embedding: []float32{0.1, 0.2}, BBox: []float64{1, 2, 11, 12}},
				{FaceIndex: 1, Dim: 0, Embedding: nil, BBox: []float64{3, 4, 5, 6}},
				{FaceIndex: 2, Dim: 2, Embedding: []float32{0.3, 0.4}, BBox: []float64{20, 20, 30, 30}},
			},
			Model: "buffalo_l",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	faces, err := client.Encode(context.Background(), solidImage(color.White))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(faces) != 2 {
		t.Fatalf("expected 2 faces (empty embedding dropped), got %d", len(faces))
	}
	if faces[0].Box != (Box{Top: 2, Right: 11, Bottom: 12, Left: 1}) {
		t.Errorf("unexpected first box %+v", faces[0].Box)
	}
	if faces[1].Descriptor[1] != 0.4 {
		t.Errorf("expected second descriptor to be preserved, got %v", faces[1].Descriptor)
	}
}

func TestClient_Encode_NoFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"faces_count": 0, "faces": [], "model": "buffalo_l"}`))
	}))
	defer server.Close()

	faces, err := NewClient(server.URL).Encode(context.Background(), solidImage(color.Black))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
}

func TestClient_Encode_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Encode(context.Background(), solidImage(color.Black))
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("expected status in error, got: %v", err)
	}
}

func TestClient_Encode_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Encode(context.Background(), solidImage(color.Black))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNewClient_DefaultURL(t *testing.T) {
	client := NewClient("")
	if client.baseURL != "http://localhost:8000" {
		t.Errorf("expected default base URL, got '%s'", client.baseURL)
	}
}

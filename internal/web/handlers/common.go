package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/facecheck/internal/camera"
	"github.com/kozaktomas/facecheck/internal/constants"
	"github.com/kozaktomas/facecheck/internal/gallery"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

// errInvalidRequestBody is a shared error message for invalid request bodies.
const errInvalidRequestBody = "invalid request body"

// errMissingFolder is returned when the gallery folder field is absent.
const errMissingFolder = "known_faces_folder is required"

// FolderRequest is the JSON form of a request naming a gallery folder.
type FolderRequest struct {
	KnownFacesFolder string `json:"known_faces_folder"`
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps recognition failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, recognition.ErrOutsideRoot):
		return http.StatusForbidden
	case errors.Is(err, gallery.ErrGalleryDir):
		return http.StatusNotFound
	case errors.Is(err, camera.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, camera.ErrCaptureTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, camera.ErrReadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError logs err and sends it with the status matching its kind.
func respondServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	log.Printf("Recognition failed (%d): %s", status, sanitizeForLog(err.Error()))
	respondError(w, status, err.Error())
}

// readFolder extracts known_faces_folder from a JSON, multipart or urlencoded body.
// An empty string with a nil error means the field was missing.
func readFolder(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxFormSize)

	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		var req FolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", err
		}
		return strings.TrimSpace(req.KnownFacesFolder), nil
	case strings.HasPrefix(ct, "multipart/form-data"):
		if err := r.ParseMultipartForm(constants.MaxFormSize); err != nil {
			return "", err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(r.PostFormValue("known_faces_folder")), nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

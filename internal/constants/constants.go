// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// DefaultEuclideanTolerance is the maximum Euclidean distance between two dlib
	// descriptors for them to be considered the same person.
	// Lower values = stricter matching
	DefaultEuclideanTolerance = 0.6

	// DefaultCosineTolerance is the maximum cosine distance between two embedding
	// service vectors for them to be considered the same person
	DefaultCosineTolerance = 0.5
)

// Capture constants
const (
	// DefaultCameraWidth and DefaultCameraHeight are the requested capture resolution
	DefaultCameraWidth  = 640
	DefaultCameraHeight = 480

	// DefaultCaptureTimeout bounds a single blocking frame read
	DefaultCaptureTimeout = 10 * time.Second

	// V4L2WaitSeconds is how long a single V4L2 poll waits before it is retried
	V4L2WaitSeconds = 1
)

// Image constants
const (
	// MaxImageSize is the maximum dimension (width or height) of a gallery image
	// before it is handed to the encoder
	MaxImageSize = 1920

	// DefaultJPEGQuality is used when frames are serialized for responses
	DefaultJPEGQuality = 85

	// EncoderJPEGQuality is used when images are uploaded to the embedding service
	EncoderJPEGQuality = 95
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// Live session constants
const (
	// SessionIdleTimeout cancels a live session that has had no event listener for this long
	SessionIdleTimeout = 30 * time.Second

	// SessionRetention is how long a finished session stays queryable
	SessionRetention = 10 * time.Minute
)

// Request constants
const (
	// MaxFormSize is the maximum size of a recognize form body in bytes (1MB)
	MaxFormSize = 1 << 20
)

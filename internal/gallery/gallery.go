// Package gallery builds the set of known faces from a directory of reference images.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/facecheck/internal/constants"
	"github.com/kozaktomas/facecheck/internal/embedding"
)

// ErrGalleryDir is returned when the gallery path cannot be read as a directory.
var ErrGalleryDir = errors.New("gallery directory unavailable")

// Skip reasons
const (
	SkipDecode = "decode failed"
	SkipNoFace = "no face detected"
)

// DefaultExtensions are the image formats scanned when none are configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// Entry is one known face.
type Entry struct {
	Label      string               `json:"label"`
	File       string               `json:"file"`
	Descriptor embedding.Descriptor `json:"-"`
}

// SkippedFile is an image that contributed no entry.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Gallery is the in-memory result of scanning one directory.
type Gallery struct {
	Dir     string        `json:"dir"`
	Entries []Entry       `json:"entries"`
	Skipped []SkippedFile `json:"skipped,omitempty"`
}

// Len returns the number of entries.
func (g *Gallery) Len() int {
	return len(g.Entries)
}

// Labels returns entry labels, index-aligned with Descriptors.
func (g *Gallery) Labels() []string {
	labels := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		labels[i] = e.Label
	}
	return labels
}

// Descriptors returns entry descriptors, index-aligned with Labels.
func (g *Gallery) Descriptors() []embedding.Descriptor {
	descs := make([]embedding.Descriptor, len(g.Entries))
	for i, e := range g.Entries {
		descs[i] = e.Descriptor
	}
	return descs
}

// Options configures a Loader.
type Options struct {
	Extensions   []string // allowed file extensions, matched case-insensitively
	MaxDimension int      // larger images are downscaled before encoding (0 = no limit)

	// OnProgress is called after each candidate file is processed.
	OnProgress func(done, total int)
}

// Loader scans gallery directories.
type Loader struct {
	encoder    embedding.Encoder
	extensions map[string]struct{}
	maxDim     int
	onProgress func(done, total int)
}

// NewLoader creates a loader that encodes images with enc.
func NewLoader(enc embedding.Encoder, opts Options) *Loader {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return &Loader{
		encoder:    enc,
		extensions: set,
		maxDim:     opts.MaxDimension,
		onProgress: opts.OnProgress,
	}
}

// WithProgress returns a copy of the loader that reports progress to fn.
func (l *Loader) WithProgress(fn func(done, total int)) *Loader {
	cp := *l
	cp.onProgress = fn
	return &cp
}

// Candidates lists the image files in dir that the loader would encode, in name order.
func (l *Loader) Candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGalleryDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := l.extensions[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

// Load scans dir and encodes the first face of every image.
// Files that fail to decode or contain no face are recorded in Skipped.
// Encoder failures and cancellation abort the load.
func (l *Loader) Load(ctx context.Context, dir string) (*Gallery, error) {
	files, err := l.Candidates(dir)
	if err != nil {
		return nil, err
	}

	g := &Gallery{Dir: dir, Entries: make([]Entry, 0, len(files))}
	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := l.decode(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: skipping gallery file %s: %v", name, err)
			g.Skipped = append(g.Skipped, SkippedFile{File: name, Reason: SkipDecode, Error: err.Error()})
			l.progress(i+1, len(files))
			continue
		}

		faces, err := l.encoder.Encode(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", name, err)
		}

		if len(faces) == 0 {
			g.Skipped = append(g.Skipped, SkippedFile{File: name, Reason: SkipNoFace})
		} else {
			g.Entries = append(g.Entries, Entry{
				Label:      LabelFor(name),
				File:       name,
				Descriptor: faces[0].Descriptor,
			})
		}
		l.progress(i+1, len(files))
	}

	return g, nil
}

func (l *Loader) decode(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if l.maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > l.maxDim || b.Dy() > l.maxDim {
			img = imaging.Fit(img, l.maxDim, l.maxDim, imaging.Lanczos)
		}
	}
	return img, nil
}

func (l *Loader) progress(done, total int) {
	if l.onProgress != nil {
		l.onProgress(done, total)
	}
}

// LabelFor derives an entry label from a file name: the base name without extension.
func LabelFor(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultOptions returns loader options with the built-in limits.
func DefaultOptions() Options {
	return Options{
		Extensions:   DefaultExtensions,
		MaxDimension: constants.MaxImageSize,
	}
}

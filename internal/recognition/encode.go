package recognition

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// EncodeJPEG serializes a frame as JPEG.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeFrame serializes a frame with the service's output quality.
func (s *Service) EncodeFrame(img image.Image) ([]byte, error) {
	return EncodeJPEG(img, s.jpegQuality)
}

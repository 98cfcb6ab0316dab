// Package annotate draws face boxes and labels onto frames in place.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/embedding"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Style controls how annotations look.
type Style struct {
	BoxColor       color.RGBA
	BoxThickness   int
	TextColor      color.RGBA
	TextOffset     image.Point // relative to the box's bottom-left corner
	Unmatched      bool        // also box faces that matched nobody
	UnmatchedColor color.RGBA
	UnmatchedLabel string
}

// DefaultStyle is a green box of thickness 2 with white text at (left+6, bottom-6).
func DefaultStyle() Style {
	return Style{
		BoxColor:       color.RGBA{G: 255, A: 255},
		BoxThickness:   2,
		TextColor:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
		TextOffset:     image.Pt(6, -6),
		UnmatchedColor: color.RGBA{R: 255, A: 255},
		UnmatchedLabel: "Unknown",
	}
}

// StyleFromConfig builds a Style from the embedded annotate defaults.
func StyleFromConfig(c config.AnnotateConfig) (Style, error) {
	s := DefaultStyle()
	var err error
	if c.BoxColor != "" {
		if s.BoxColor, err = ParseHexColor(c.BoxColor); err != nil {
			return s, fmt.Errorf("box_color: %w", err)
		}
	}
	if c.TextColor != "" {
		if s.TextColor, err = ParseHexColor(c.TextColor); err != nil {
			return s, fmt.Errorf("text_color: %w", err)
		}
	}
	if c.UnmatchedColor != "" {
		if s.UnmatchedColor, err = ParseHexColor(c.UnmatchedColor); err != nil {
			return s, fmt.Errorf("unmatched_color: %w", err)
		}
	}
	if c.BoxThickness > 0 {
		s.BoxThickness = c.BoxThickness
	}
	if c.UnmatchedLabel != "" {
		s.UnmatchedLabel = c.UnmatchedLabel
	}
	s.TextOffset = image.Pt(c.TextOffset.X, c.TextOffset.Y)
	s.Unmatched = c.Unmatched
	return s, nil
}

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Annotator draws on frames with a fixed style.
type Annotator struct {
	style Style
}

// New creates an annotator.
func New(style Style) *Annotator {
	return &Annotator{style: style}
}

// Style returns the annotator's style.
func (a *Annotator) Style() Style {
	return a.style
}

// Matched draws the match box and label for a face.
func (a *Annotator) Matched(frame *image.RGBA, box embedding.Box, label string) {
	a.draw(frame, box, label, a.style.BoxColor)
}

// Unmatched draws the unmatched box when the style enables it.
func (a *Annotator) Unmatched(frame *image.RGBA, box embedding.Box) {
	if !a.style.Unmatched {
		return
	}
	a.draw(frame, box, a.style.UnmatchedLabel, a.style.UnmatchedColor)
}

func (a *Annotator) draw(frame *image.RGBA, box embedding.Box, label string, c color.RGBA) {
	DrawRect(frame, box.Rect(), c, a.style.BoxThickness)
	DrawLabel(frame, image.Pt(box.Left, box.Bottom).Add(a.style.TextOffset), label, a.style.TextColor)
}

// DrawRect draws an unfilled rectangle whose border grows inward from r.
// Drawing is clipped to the frame.
func DrawRect(frame *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	r = r.Canon()
	if r.Empty() || thickness <= 0 {
		return
	}
	src := image.NewUniform(c)
	t := min(thickness, r.Dx(), r.Dy())

	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), // top
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), // left
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(frame, e.Intersect(frame.Bounds()), src, image.Point{}, draw.Src)
	}
}

// DrawLabel writes text with its baseline starting at dot.
// Text is transliterated to ASCII since the built-in face has no other glyphs.
func DrawLabel(frame *image.RGBA, dot image.Point, text string, c color.RGBA) {
	text = ToASCII(text)
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  frame,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(text)
}

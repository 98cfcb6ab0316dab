package embedding

import (
	"image"
	"math"
)

// Box is a face bounding box in pixel coordinates.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Right <= b.Left || b.Bottom <= b.Top
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y, Left: r.Min.X}
}

// BoxFromBBox converts a pixel bbox [x1, y1, x2, y2] to a Box.
// Coordinates are rounded to the nearest pixel. Invalid input yields an empty box.
func BoxFromBBox(bbox []float64) Box {
	if len(bbox) != 4 {
		return Box{}
	}
	return BoxFromRect(image.Rect(
		int(math.Round(bbox[0])),
		int(math.Round(bbox[1])),
		int(math.Round(bbox[2])),
		int(math.Round(bbox[3])),
	))
}

package gocvcam

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Key codes returned by Window.Poll.
const (
	KeyNone = -1
	KeyEsc  = 27
)

// Window is a live OpenCV preview window.
type Window struct {
	w *gocv.Window
}

// NewWindow opens a preview window with the given title.
func NewWindow(title string) *Window {
	return &Window{w: gocv.NewWindow(title)}
}

// Show renders img and polls the keyboard for 1ms. It returns the pressed key or KeyNone.
func (w *Window) Show(img image.Image) (int, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return KeyNone, fmt.Errorf("converting frame: %w", err)
	}
	defer mat.Close()

	w.w.IMShow(mat)
	return w.w.WaitKey(1), nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}

package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/recognition"
)

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}

// writeFrame saves an annotated frame as JPEG.
func writeFrame(path string, frame image.Image, quality int) error {
	data, err := recognition.EncodeJPEG(frame, quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// printResult prints the message and per-face details of a result.
func printResult(res *facematch.Result) {
	fmt.Printf("%s", res.Message)
	if len(res.Labels) > 0 {
		fmt.Printf(": %s", strings.Join(res.Labels, ", "))
	}
	fmt.Println()

	for i, f := range res.Faces {
		r := f.Box.Rect()
		if f.Matched {
			fmt.Printf("  face %d at %v: %s (distance %.3f)\n", i+1, r, f.Label, f.Distance)
		} else {
			fmt.Printf("  face %d at %v: no match\n", i+1, r)
		}
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/facematch"
	"github.com/kozaktomas/facecheck/internal/gallery"
	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <known-faces-dir>",
	Short: "Capture one frame and match it against a gallery",
	Long: `Load every image in the gallery directory, capture a single frame from the
camera and report which known faces it contains.

Examples:
  facecheck recognize ./faces
  facecheck recognize ./faces --output frame.jpg
  facecheck recognize ./faces --json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().StringP("output", "o", "", "Write the annotated frame to this JPEG file")
	recognizeCmd.Flags().Bool("json", false, "Output as JSON")
}

// RecognizeOutput is the JSON output of the recognize command
type RecognizeOutput struct {
	Message     string                `json:"message"`
	Matched     bool                  `json:"matched"`
	Labels      []string              `json:"labels"`
	Faces       []facematch.FaceMatch `json:"faces"`
	GallerySize int                   `json:"gallery_size"`
	Skipped     []gallery.SkippedFile `json:"skipped,omitempty"`
	Output      string                `json:"output,omitempty"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	output := mustGetString(cmd, "output")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	svc, cleanup, err := newService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := svc.Recognize(ctx, args[0])
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	if output != "" {
		if err := writeFrame(output, report.Frame, cfg.Defaults.Output.JPEGQuality); err != nil {
			return err
		}
	}

	if jsonOutput {
		return outputJSON(RecognizeOutput{
			Message:     report.Message,
			Matched:     report.Matched,
			Labels:      report.Labels,
			Faces:       report.Faces,
			GallerySize: report.Gallery.Len(),
			Skipped:     report.Gallery.Skipped,
			Output:      output,
		})
	}

	fmt.Printf("Gallery: %d known faces", report.Gallery.Len())
	if n := len(report.Gallery.Skipped); n > 0 {
		fmt.Printf(" (%d files skipped)", n)
	}
	fmt.Println()
	printResult(report.Result)
	if output != "" {
		fmt.Printf("Annotated frame written to %s\n", output)
	}
	return nil
}

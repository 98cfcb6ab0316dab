package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery <known-faces-dir>",
	Short: "Load a gallery and list the faces it contains",
	Long: `Encode every image in the gallery directory without touching the camera.
Useful to check which reference photos produce a usable face before running
recognize or watch.

Examples:
  facecheck gallery ./faces
  facecheck gallery ./faces --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)

	galleryCmd.Flags().Bool("json", false, "Output as JSON")
}

func runGallery(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	enc, cleanup, err := newEncoder(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	dir, err := recognition.ResolveGalleryDir(cfg.Gallery.Root, args[0])
	if err != nil {
		return err
	}

	loader := newLoader(cfg, enc)
	files, err := loader.Candidates(dir)
	if err != nil {
		return err
	}

	if !jsonOutput {
		fmt.Printf("Gallery: %s\n", dir)
		fmt.Printf("Encoding %d images...\n\n", len(files))
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Encoding faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
		loader = loader.WithProgress(func(done, total int) {
			bar.Set(done)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, err := loader.Load(ctx, dir)
	if err != nil {
		return fmt.Errorf("loading gallery: %w", err)
	}

	if jsonOutput {
		return outputJSON(g)
	}

	fmt.Printf("\n\nKnown faces: %d\n", g.Len())
	for _, e := range g.Entries {
		fmt.Printf("  %-24s %s\n", e.Label, e.File)
	}
	if len(g.Skipped) > 0 {
		fmt.Printf("\nSkipped: %d\n", len(g.Skipped))
		for _, s := range g.Skipped {
			if s.Error != "" {
				fmt.Printf("  - %s: %s (%s)\n", s.File, s.Reason, s.Error)
			} else {
				fmt.Printf("  - %s: %s\n", s.File, s.Reason)
			}
		}
	}
	return nil
}

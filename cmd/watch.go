package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/facecheck/internal/camera/gocvcam"
	"github.com/kozaktomas/facecheck/internal/config"
	"github.com/kozaktomas/facecheck/internal/recognition"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <known-faces-dir>",
	Short: "Match camera frames continuously until a known face appears",
	Long: `Load the gallery once, then keep capturing and matching frames from the
camera. The loop ends on the first match, after --max-frames frames, on Ctrl+C
or, with --window, when q or Esc is pressed in the preview window.

Examples:
  facecheck watch ./faces
  facecheck watch ./faces --window
  facecheck watch ./faces --max-frames 100 --output match.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Bool("window", false, "Show annotated frames in a preview window")
	watchCmd.Flags().StringP("output", "o", "", "Write the last annotated frame to this JPEG file")
	watchCmd.Flags().Int("max-frames", 0, "Stop after this many frames (0 = WATCH_MAX_FRAMES or unlimited)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	showWindow := mustGetBool(cmd, "window")
	output := mustGetString(cmd, "output")
	maxFrames := mustGetInt(cmd, "max-frames")

	cfg := config.Load()
	if maxFrames <= 0 {
		maxFrames = cfg.Watch.MaxFrames
	}

	svc, cleanup, err := newService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var win *gocvcam.Window
	if showWindow {
		win = gocvcam.NewWindow("facecheck")
		defer win.Close()
	}

	fmt.Println("Watching camera, press Ctrl+C to stop")

	report, err := svc.Watch(ctx, args[0], recognition.WatchOptions{MaxFrames: maxFrames}, func(u *recognition.Update) error {
		fmt.Printf("Frame %d: ", u.Index)
		printResult(u.Result)

		if win == nil {
			return nil
		}
		key, err := win.Show(u.Result.Frame)
		if err != nil {
			return err
		}
		if key == 'q' || key == gocvcam.KeyEsc {
			return recognition.ErrStop
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	fmt.Printf("Stopped after %d frames: %s\n", report.Frames, report.Stop)

	if output != "" && report.Last != nil {
		if err := writeFrame(output, report.Last.Frame, cfg.Defaults.Output.JPEGQuality); err != nil {
			return err
		}
		fmt.Printf("Last frame written to %s\n", output)
	}
	return nil
}

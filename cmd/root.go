package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facecheck",
	Short: "Recognize known faces from a webcam",
	Long: `Facecheck captures frames from a local camera, detects faces and compares
them against a gallery of reference photos, one image per person, named
after that person. Matched faces are boxed and labelled.

Run it once from the command line, continuously with a preview window, or
as a web server with a browser UI.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

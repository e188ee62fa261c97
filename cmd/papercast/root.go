package main

import (
	"github.com/spf13/cobra"

	"papercast/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "papercast",
	Short: "Turn academic PDFs into multi-speaker podcast episodes",
	Long: `Papercast turns an academic paper into a two-host podcast episode.

The pipeline includes:
  - Heuristic PDF layout analysis and section detection
  - Chapter planning and concurrent dialogue generation with Gemini
  - Study guide and quiz generation
  - Optional speech synthesis and episode mixing`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.papercast/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "papercast home directory (default: ~/.papercast)",
	)

	rootCmd.AddCommand(versionCmd)
}

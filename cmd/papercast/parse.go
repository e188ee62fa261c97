package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"papercast/internal/segment"
)

var parseCmd = &cobra.Command{
	Use:   "parse <pdf>",
	Short: "Segment a PDF and print the parsed document as JSON",
	Long: `Run the document segmentation stage on its own and print the result.

Useful for inspecting how a paper's sections, headings, and metadata are
detected before committing to a full generation run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		doc, err := segment.NewSegmenter(logger).Segment(cmd.Context(), args[0], uuid.NewString())
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

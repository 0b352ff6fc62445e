package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lidianycs/cerca/internal/extract"
)

func init() {
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract citations from a PDF without verifying them",
	Long: `Extract parses the references section of a PDF and prints the
detected citations as JSON, one record per entry, without contacting any
external database. Useful for checking what verify would operate on.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	recs, err := extract.NewPDFExtractor().Extract(args[0])
	if err != nil {
		if errors.Is(err, extract.ErrInvalidDocument) {
			exitWithError(ExitDataError, "cannot read %s: %v", args[0], err)
		}
		exitWithError(ExitError, "%v", err)
	}
	return outputJSON(recs)
}

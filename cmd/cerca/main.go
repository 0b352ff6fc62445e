// Package main provides the cerca CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lidianycs/cerca/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	verbose   bool
	auditPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cerca",
	Short: "Citation reference checker",
	Long: `cerca verifies the bibliography of a manuscript against public
bibliographic databases (Crossref, OpenAlex, Zenodo, Semantic Scholar),
scoring each citation's similarity to the best candidate record and
flagging likely fabrications, hijacked DOIs, and author mismatches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; absence is not an error.
		_ = godotenv.Load()
		closer, err := logging.Setup(verbose, auditPath)
		if err != nil {
			return err
		}
		cobra.OnFinalize(func() { closer.Close() })
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&auditPath, "audit", logging.DefaultAuditFile, "Audit log file (empty to disable)")
	rootCmd.Version = Version
}

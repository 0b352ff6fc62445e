package main

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lidianycs/cerca/internal/report"
	"github.com/lidianycs/cerca/internal/storage"
)

var (
	exportDBPath     string
	exportCSVPath    string
	exportReportPath string
)

func init() {
	exportCmd.Flags().StringVar(&exportDBPath, "db", "cerca.db", "SQLite database to read the latest session from")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Write results as CSV (default timestamped name when no path given)")
	exportCmd.Flags().Lookup("csv").NoOptDefVal = "auto"
	exportCmd.Flags().StringVar(&exportReportPath, "report", "", "Write the diagnostic report to this path ('-' for stdout)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Re-export the most recent saved session",
	Long: `Export reads the latest verification session from a database saved
with 'verify --db' and writes the CSV export or diagnostic report without
rerunning the cascade.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportCSVPath == "" && exportReportPath == "" {
		exitWithError(ExitError, "nothing to do: pass --csv and/or --report")
	}

	db, err := storage.OpenDB(exportDBPath)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	session, err := db.LatestSession()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exitWithError(ExitDataError, "no sessions in %s", exportDBPath)
		}
		exitWithError(ExitError, "%v", err)
	}

	csvPath := exportCSVPath
	if csvPath == "auto" {
		csvPath = report.DefaultCSVName(time.Now())
	}
	if csvPath != "" {
		if err := report.ExportCSV(csvPath, session.Records); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if exportReportPath == "-" {
		return report.WriteReport(os.Stdout, session.Records, filepath.Base(session.Source), time.Now())
	}
	if exportReportPath != "" {
		if err := report.ExportReport(exportReportPath, session.Records, filepath.Base(session.Source), time.Now()); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}
	return nil
}

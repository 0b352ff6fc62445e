package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lidianycs/cerca/internal/config"
	"github.com/lidianycs/cerca/internal/extract"
	"github.com/lidianycs/cerca/internal/reference"
	"github.com/lidianycs/cerca/internal/report"
	"github.com/lidianycs/cerca/internal/sources"
	"github.com/lidianycs/cerca/internal/storage"
	"github.com/lidianycs/cerca/internal/verify"
)

var (
	verifyCSVPath    string
	verifyReportPath string
	verifyDBPath     string
	verifyManual     bool
	verifyTimeout    time.Duration
	verifyDelay      time.Duration
)

func init() {
	verifyCmd.Flags().StringVar(&verifyCSVPath, "csv", "", "Export results as CSV (default timestamped name when no path given)")
	verifyCmd.Flags().Lookup("csv").NoOptDefVal = "auto"
	verifyCmd.Flags().StringVar(&verifyReportPath, "report", "", "Write the diagnostic report to this path")
	verifyCmd.Flags().StringVar(&verifyDBPath, "db", "", "Save the session to this SQLite database")
	verifyCmd.Flags().BoolVar(&verifyManual, "manual", false, "Treat input as pasted citation lines instead of a PDF ('-' reads stdin)")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", sources.DefaultTimeout, "Per-request HTTP timeout")
	verifyCmd.Flags().DurationVar(&verifyDelay, "delay", verify.DefaultPacing, "Pacing delay between records")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a document's citations against bibliographic databases",
	Long: `Verify extracts the references section of a PDF (or reads pasted
citation lines with --manual) and checks each citation against Crossref,
OpenAlex, Zenodo and, when an API key is configured, Semantic Scholar.

Each record ends in one of:
  PASS       high-confidence match found
  CHECK      a candidate was found but needs human review
  FAIL       best candidate scored below the display threshold
  NOT_FOUND  no source returned a usable candidate`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	recs, err := loadRecords(args[0], verifyManual)
	if err != nil {
		if errors.Is(err, extract.ErrInvalidDocument) {
			exitWithError(ExitDataError, "cannot read %s: %v", args[0], err)
		}
		exitWithError(ExitError, "%v", err)
	}
	if len(recs) == 0 {
		fmt.Fprintln(os.Stderr, "warning: no citations found in the document.")
		fmt.Fprintln(os.Stderr, "If the bibliography is an image or uses an unusual layout, paste the")
		fmt.Fprintln(os.Stderr, "references into a text file and rerun with --manual.")
		return nil
	}

	srcs := buildSources(cfg, verifyTimeout)

	updates := make(chan verify.Update, len(recs)*2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printProgress(updates, recs)
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	orch := verify.New(srcs, log.Logger,
		verify.WithPacing(verifyDelay),
		verify.WithUpdates(updates))
	summary := orch.RunBatch(ctx, recs)
	close(updates)
	wg.Wait()

	if err := writeOutputs(args[0], summary, recs); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return outputJSON(summary)
}

// loadRecords builds the record batch from a PDF or from pasted lines.
func loadRecords(path string, manual bool) ([]*reference.Record, error) {
	if !manual {
		return extract.NewPDFExtractor().Extract(path)
	}

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var recs []*reference.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	id := 1
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 5 {
			continue
		}
		authors, title := extract.ParseLine(line)
		recs = append(recs, reference.New(id, authors, title, line, extract.FindDOI(line)))
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return recs, nil
}

// buildSources assembles the cascade in its fixed order.
func buildSources(cfg *config.Settings, timeout time.Duration) []sources.Source {
	hc := &http.Client{Timeout: timeout}
	return []sources.Source{
		sources.NewCrossref(cfg.ContactEmail, log.Logger, sources.WithCrossrefHTTPClient(hc)),
		sources.NewOpenAlex(cfg.ContactEmail, log.Logger, sources.WithOpenAlexHTTPClient(hc)),
		sources.NewZenodo(log.Logger, sources.WithZenodoHTTPClient(hc)),
		sources.NewSemanticScholar(cfg.S2APIKey, log.Logger, sources.WithSemanticScholarHTTPClient(hc)),
	}
}

// printProgress drains the updates channel, writing one line per finished
// record to stderr so stdout stays machine-readable.
func printProgress(updates <-chan verify.Update, recs []*reference.Record) {
	titles := make(map[int]string, len(recs))
	for _, rec := range recs {
		titles[rec.ID] = rec.PDFTitle
	}
	for u := range updates {
		if !u.Done {
			continue
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %-9s %3d%%  %s\n",
			u.RecordID, len(recs), u.Status, u.Score,
			truncateString(titles[u.RecordID], progressTitleMaxLen))
	}
}

// writeOutputs handles the optional CSV, report, and database outputs.
func writeOutputs(source string, summary verify.Summary, recs []*reference.Record) error {
	now := time.Now()

	csvPath := verifyCSVPath
	if csvPath == "auto" {
		csvPath = report.DefaultCSVName(now)
	}
	if csvPath != "" {
		if err := report.ExportCSV(csvPath, recs); err != nil {
			return err
		}
		log.Info().Str("path", csvPath).Msg("wrote CSV export")
	}

	if verifyReportPath != "" {
		if err := report.ExportReport(verifyReportPath, recs, filepath.Base(source), now); err != nil {
			return err
		}
		log.Info().Str("path", verifyReportPath).Msg("wrote diagnostic report")
	}

	if verifyDBPath != "" {
		db, err := storage.OpenDB(verifyDBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveSession(source, summary, recs)
		if err != nil {
			return err
		}
		log.Info().Int64("session", id).Str("path", verifyDBPath).Msg("saved session")
	}
	return nil
}

// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultAuditFile is where verification activity is appended when no
// explicit path is configured.
const DefaultAuditFile = "cerca_audit.log"

// Setup configures the global logger: human-readable console output on
// stderr plus a JSON audit trail appended to auditPath. An empty auditPath
// disables the audit file. The returned closer flushes the audit file.
func Setup(verbose bool, auditPath string) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if auditPath == "" {
		log.Logger = log.Output(console)
		return io.NopCloser(nil), nil
	}

	audit, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	log.Logger = log.Output(zerolog.MultiLevelWriter(console, audit))
	return audit, nil
}

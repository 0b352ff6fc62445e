package report

import (
	"strings"
	"testing"
	"time"

	"github.com/lidianycs/cerca/internal/reference"
)

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *reference.Record
		want  string
	}{
		{
			name: "no match found",
			setup: func() *reference.Record {
				return reference.New(1, "Smith, J.", "Ghost Paper", "raw", "")
			},
			want: "NO MATCH FOUND",
		},
		{
			name: "doi hijacking",
			setup: func() *reference.Record {
				rec := reference.New(2, "Smith, J.", "Real Title", "raw", "10.1234/other")
				rec.DBTitle = "Entirely Different Work"
				rec.DBAuthors = "Nobody, N."
				rec.MatchScore = 30
				return rec
			},
			want: "POTENTIAL DOI HIJACKING",
		},
		{
			name: "author mismatch",
			setup: func() *reference.Record {
				rec := reference.New(3, "Smith, J.", "Shared Title", "raw", "")
				rec.DBTitle = "Shared Title"
				rec.DBAuthors = "Jones, A.; Brown, B."
				rec.MatchScore = 70
				return rec
			},
			want: "AUTHOR MISMATCH",
		},
		{
			name: "significant title mismatch",
			setup: func() *reference.Record {
				rec := reference.New(4, "", "Some Title", "raw", "")
				rec.DBTitle = "Another Title"
				rec.DBAuthors = ""
				rec.MatchScore = 35
				return rec
			},
			want: "Database record differs by 65%",
		},
		{
			name: "low confidence fallback",
			setup: func() *reference.Record {
				rec := reference.New(5, "Smith, J.", "Close Title", "raw", "")
				rec.DBTitle = "Close Titles"
				rec.DBAuthors = "Smith, J."
				rec.MatchScore = 65
				return rec
			},
			want: "LOW CONFIDENCE MATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diagnose(tt.setup())
			if !strings.Contains(got, tt.want) {
				t.Errorf("Diagnose() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestWriteReportSummaryAndBlocks(t *testing.T) {
	pass := reference.New(1, "A B", "Good Title", "raw", "")
	pass.SetCandidate("Good Title", "A B", 90)

	review := reference.New(2, "Smith, J.", "Weak Title", "raw", "")
	review.SetCandidate("Weakly Related", "Smith, J.", 60)

	missing := reference.New(3, "C D", "Unfound Title", "raw", "")
	missing.MarkNotFound()

	var sb strings.Builder
	now := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	err := WriteReport(&sb, []*reference.Record{pass, review, missing}, "paper.pdf", now)
	if err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	for _, want := range []string{
		"CERCA - INTEGRITY DIAGNOSTIC REPORT",
		"Generated: 2026-08-31 09:30",
		"File: paper.pdf",
		"Total References: 3",
		"Verified:         2",
		"Review Needed:    1",
		"#2",
		"LOW CONFIDENCE MATCH",
		"Similarity:  60%",
		"End of Report",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// Exhaustion marks records verified, so NOT_FOUND stays out of the
	// diagnostics section despite being the worst outcome.
	if strings.Contains(out, "#3") {
		t.Error("NOT_FOUND record unexpectedly included in diagnostics")
	}
	if strings.Contains(out, "#1") {
		t.Error("verified record unexpectedly included in diagnostics")
	}
}

func TestWriteReportAllVerified(t *testing.T) {
	rec := reference.New(1, "A B", "Good Title", "raw", "")
	rec.SetCandidate("Good Title", "A B", 90)

	var sb strings.Builder
	if err := WriteReport(&sb, []*reference.Record{rec}, "p.pdf", time.Now()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), "No issues detected") {
		t.Error("missing all-clear message")
	}
}

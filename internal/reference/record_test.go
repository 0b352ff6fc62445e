package reference

import "testing"

func TestStatusFromScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Status
	}{
		{100, StatusPass},
		{76, StatusPass},
		{75, StatusCheck}, // pass boundary is exclusive
		{51, StatusCheck},
		{50, StatusFail}, // display boundary is exclusive too
		{0, StatusFail},
	}

	for _, tt := range tests {
		if got := StatusFromScore(tt.score); got != tt.want {
			t.Errorf("StatusFromScore(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusWaiting, "WAITING"},
		{StatusSearching, "SEARCHING"},
		{StatusPass, "PASS"},
		{StatusCheck, "CHECK"},
		{StatusFail, "FAIL"},
		{StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}

func TestParseStatus_RoundTrip(t *testing.T) {
	for _, s := range []Status{StatusWaiting, StatusSearching, StatusPass, StatusCheck, StatusFail, StatusNotFound} {
		parsed, err := ParseStatus(s.String())
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseStatus(%q) = %v, want %v", s.String(), parsed, s)
		}
	}

	if _, err := ParseStatus("NONSENSE"); err == nil {
		t.Error("ParseStatus should reject unknown names")
	}
}

func TestNew_Sentinels(t *testing.T) {
	rec := New(1, "", "", "raw citation text", "")
	if rec.PDFAuthors != UnknownAuthors {
		t.Errorf("PDFAuthors = %q, want sentinel", rec.PDFAuthors)
	}
	if rec.PDFTitle != UnknownTitle {
		t.Errorf("PDFTitle = %q, want sentinel", rec.PDFTitle)
	}
	if rec.Status != StatusWaiting {
		t.Errorf("Status = %v, want WAITING", rec.Status)
	}
	if rec.HasStructuredTitle() {
		t.Error("HasStructuredTitle should be false for sentinel title")
	}
}

func TestSetCandidate(t *testing.T) {
	rec := New(1, "J. Smith", "Some Title", "raw", "")

	rec.SetCandidate("Some Title", "John Smith", 86)
	if rec.DBTitle != "Some Title" || rec.DBAuthors != "John Smith" {
		t.Errorf("candidate fields not written: %+v", rec)
	}
	if rec.Status != StatusPass {
		t.Errorf("Status = %v, want PASS for score 86", rec.Status)
	}
	if !rec.Verified {
		t.Error("score above pass threshold should mark record verified")
	}

	rec2 := New(2, "J. Smith", "Some Title", "raw", "")
	rec2.SetCandidate("Similar Title", "John Smith", 60)
	if rec2.Status != StatusCheck {
		t.Errorf("Status = %v, want CHECK for score 60", rec2.Status)
	}
	if rec2.Verified {
		t.Error("score below pass threshold should not mark record verified")
	}
}

func TestSetVerified_Toggle(t *testing.T) {
	rec := New(1, "a", "t", "raw", "")
	rec.SetCandidate("t", "a", 60) // CHECK

	// Checking forces PASS regardless of score.
	rec.SetVerified(true)
	if rec.Status != StatusPass {
		t.Errorf("Status after SetVerified(true) = %v, want PASS", rec.Status)
	}

	// Unchecking recomputes from the stored score.
	rec.SetVerified(false)
	if rec.Status != StatusCheck {
		t.Errorf("Status after SetVerified(false) = %v, want CHECK", rec.Status)
	}

	rec.MatchScore = 40
	rec.SetVerified(false)
	if rec.Status != StatusFail {
		t.Errorf("Status after uncheck with score 40 = %v, want FAIL", rec.Status)
	}
}

func TestMarkNotFound(t *testing.T) {
	rec := New(1, "a", "t", "raw", "")
	rec.MarkNotFound()

	if rec.Status != StatusNotFound {
		t.Errorf("Status = %v, want NOT_FOUND", rec.Status)
	}
	if rec.MatchScore != 0 {
		t.Errorf("MatchScore = %d, want 0", rec.MatchScore)
	}
	if !rec.Verified {
		t.Error("exhausted records are flagged verified")
	}
}

func TestOnChange(t *testing.T) {
	rec := New(1, "a", "t", "raw", "")

	var calls int
	rec.OnChange(func(r *Record) { calls++ })

	rec.SetStatus(StatusSearching)
	rec.SetCandidate("t", "a", 90)
	rec.SetVerified(false)
	rec.MarkNotFound()

	if calls != 4 {
		t.Errorf("listener called %d times, want 4", calls)
	}
}

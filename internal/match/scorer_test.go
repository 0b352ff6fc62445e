package match

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		titleSim    int
		authorSim   int
		authorFloor int
		want        int
	}{
		{"author below floor caps at 50", 90, 30, 40, 50},
		{"author above floor blends 60/40", 90, 80, 40, 86},
		{"perfect match", 100, 100, 40, 100},
		{"zero everything", 0, 0, 40, 0},
		{"weak title below cap passes through", 30, 10, 40, 30},
		{"author exactly at floor blends", 90, 40, 40, 70},
		{"author just below floor", 90, 39, 40, 50},
		{"floor 50 source", 80, 45, 50, 50},
		{"blend rounds to nearest", 75, 76, 40, 75}, // 45 + 30.4 = 75.4
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.titleSim, tt.authorSim, tt.authorFloor); got != tt.want {
				t.Errorf("Score(%d, %d, %d) = %d, want %d",
					tt.titleSim, tt.authorSim, tt.authorFloor, got, tt.want)
			}
		})
	}
}

func TestScore_Range(t *testing.T) {
	for title := 0; title <= 100; title += 10 {
		for author := 0; author <= 100; author += 10 {
			got := Score(title, author, 40)
			if got < 0 || got > 100 {
				t.Fatalf("Score(%d, %d, 40) = %d, out of [0,100]", title, author, got)
			}
		}
	}
}

func TestTitleScore_StructuredTitle(t *testing.T) {
	got := TitleScore("Deep Learning for Protein Structure", "deep learning for protein structure", false)
	if got != 100 {
		t.Errorf("TitleScore full match = %d, want 100", got)
	}
}

func TestTitleScore_RawFallback(t *testing.T) {
	candidate := "Deep Learning for Protein Structure"
	raw := "[3] A. Jones, Deep learning for protein structure, Science, 2025."

	full := TitleScore(candidate, raw, false)
	partial := TitleScore(candidate, raw, true)
	if partial <= full {
		t.Errorf("raw fallback should use partial matching: partial=%d full=%d", partial, full)
	}
	if partial < 90 {
		t.Errorf("TitleScore raw fallback = %d, want >= 90 for embedded title", partial)
	}
}

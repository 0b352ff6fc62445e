package reference

import (
	"fmt"

	"github.com/lidianycs/cerca/internal/match"
)

// Status is the verification state of a record.
type Status int

const (
	// StatusWaiting means the record has not been verified yet.
	StatusWaiting Status = iota
	// StatusSearching means a verification cascade is running on the record.
	StatusSearching
	// StatusPass means the best match cleared the pass threshold.
	StatusPass
	// StatusCheck means a candidate was found but needs human review.
	StatusCheck
	// StatusFail means no candidate scored above the display threshold.
	StatusFail
	// StatusNotFound means every source was exhausted without a usable
	// candidate. Only the orchestrator's exhaustion path sets this.
	StatusNotFound
)

var statusNames = map[Status]string{
	StatusWaiting:   "WAITING",
	StatusSearching: "SEARCHING",
	StatusPass:      "PASS",
	StatusCheck:     "CHECK",
	StatusFail:      "FAIL",
	StatusNotFound:  "NOT_FOUND",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts a status name back to a Status value.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusWaiting, fmt.Errorf("unknown status: %q", name)
}

// StatusFromScore classifies a match score. The pass boundary is exclusive:
// 76 is a PASS, 75 still needs a CHECK. Scores at or below the display
// threshold are a FAIL.
func StatusFromScore(score int) Status {
	switch {
	case score > match.PassThreshold:
		return StatusPass
	case score > match.DisplayThreshold:
		return StatusCheck
	default:
		return StatusFail
	}
}

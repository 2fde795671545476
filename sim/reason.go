package sim

import "fmt"

// TerminalReason records why an agent stopped.
type TerminalReason uint8

const (
	ReasonNone           TerminalReason = iota // still alive
	ReasonCollision                            // hit a pipe
	ReasonFloor                                // fell below max height
	ReasonCeiling                              // flew above the top edge
	ReasonTrackCompleted                       // passed every pipe
)

var reasonNames = [...]string{
	ReasonNone:           "none",
	ReasonCollision:      "collision",
	ReasonFloor:          "floor",
	ReasonCeiling:        "ceiling",
	ReasonTrackCompleted: "track_completed",
}

// Reasons lists every terminal reason, excluding ReasonNone.
var Reasons = []TerminalReason{ReasonCollision, ReasonFloor, ReasonCeiling, ReasonTrackCompleted}

func (r TerminalReason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r TerminalReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TerminalReason) UnmarshalText(text []byte) error {
	s := string(text)
	for i, name := range reasonNames {
		if name == s {
			*r = TerminalReason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown terminal reason %q", s)
}

// Failed reports whether the reason ends the run without completing the track.
func (r TerminalReason) Failed() bool {
	return r != ReasonNone && r != ReasonTrackCompleted
}

// Package audio plays synthesized sound cues for the first bird of an
// episode: a chirp on every flap, a chime on every pipe passed and a buzz on
// a crash.
package audio

import "github.com/KevinHern/flappy-bird-ai/sim"

// Cue is a sound event detected between two snapshots.
type Cue int

const (
	CueFlap  Cue = iota // agent flapped this tick
	CueScore            // agent passed a pipe
	CueCrash            // agent died before completing the track
	cueCount
)

func (c Cue) String() string {
	switch c {
	case CueFlap:
		return "flap"
	case CueScore:
		return "score"
	case CueCrash:
		return "crash"
	default:
		return "unknown"
	}
}

// CueDetector turns consecutive snapshots into cues for one agent.
type CueDetector struct {
	AgentID int

	episode  int
	started  bool
	passed   int
	terminal bool
}

// Detect compares s with the previous snapshot. A new episode resets the
// tracked state without emitting cues for the reset itself.
func (d *CueDetector) Detect(s sim.Snapshot) []Cue {
	var agent *sim.AgentState
	for i := range s.Agents {
		if s.Agents[i].ID == d.AgentID {
			agent = &s.Agents[i]
			break
		}
	}
	if agent == nil {
		return nil
	}

	if !d.started || s.Episode != d.episode {
		d.started = true
		d.episode = s.Episode
		d.passed = 0
		d.terminal = false
	}
	if d.terminal {
		return nil
	}

	var cues []Cue
	if agent.Flapped {
		cues = append(cues, CueFlap)
	}
	if agent.PipesPassed > d.passed {
		cues = append(cues, CueScore)
	}
	if agent.Terminal && agent.Reason.Failed() {
		cues = append(cues, CueCrash)
	}

	d.passed = agent.PipesPassed
	d.terminal = agent.Terminal
	return cues
}

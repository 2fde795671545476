package sim

// PipeState is a read-only copy of one pipe pair.
type PipeState struct {
	Index  int  `json:"index"`
	Top    Rect `json:"top"`
	Bottom Rect `json:"bottom"`
}

// AgentState is a read-only copy of one agent.
type AgentState struct {
	ID          int            `json:"id"`
	X           float64        `json:"x"`
	Y           float64        `json:"y"`
	VX          float64        `json:"vx"`
	VY          float64        `json:"vy"`
	Radius      float64        `json:"radius"`
	Flapped     bool           `json:"flapped"`
	Terminal    bool           `json:"terminal"`
	Reason      TerminalReason `json:"reason"`
	PipesPassed int            `json:"pipes_passed"`
	Score       float64        `json:"score"`
}

// Snapshot is the state handed to renderers after each tick. It shares no
// memory with the simulation.
type Snapshot struct {
	Episode     int          `json:"episode"`
	Tick        int          `json:"tick"`
	FieldWidth  float64      `json:"field_width"`
	FieldHeight float64      `json:"field_height"`
	TotalPipes  int          `json:"total_pipes"`
	Passed      bool         `json:"passed"`
	Alive       int          `json:"alive"`
	Done        bool         `json:"done"`
	Pipes       []PipeState  `json:"pipes"`
	Agents      []AgentState `json:"agents"`
}

// BestPipes returns the highest pipes-passed count among the agents.
func (s *Snapshot) BestPipes() int {
	best := 0
	for _, a := range s.Agents {
		if a.PipesPassed > best {
			best = a.PipesPassed
		}
	}
	return best
}

func stateOf(a *Agent) AgentState {
	pos, vel := a.Position(), a.Velocity()
	return AgentState{
		ID:          a.ID(),
		X:           pos.X(),
		Y:           pos.Y(),
		VX:          vel.X(),
		VY:          vel.Y(),
		Radius:      a.Radius(),
		Flapped:     a.Flapped(),
		Terminal:    a.IsTerminal(),
		Reason:      a.Reason(),
		PipesPassed: a.PipesPassed(),
		Score:       a.Score(),
	}
}

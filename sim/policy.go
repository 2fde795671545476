package sim

// Observation is the state a decision policy sees each tick.
type Observation struct {
	// Y is the agent's vertical center.
	Y float64
	// PipeFarX is the far edge of the closest pipe padded by the agent radius.
	PipeFarX float64
	// GapTop is the bottom of the top pipe padded by the agent radius.
	GapTop float64
	// GapBottom is the top of the bottom pipe minus the agent radius.
	GapBottom float64
	// HasPipe is false once the track is exhausted.
	HasPipe bool
}

// Inputs returns the observation in network input order.
func (o Observation) Inputs() []float64 {
	return []float64{o.Y, o.PipeFarX, o.GapTop, o.GapBottom}
}

// InputNames labels Inputs for exports and inspectors.
var InputNames = []string{
	"Bird Y Position",
	"X position of the farthest corner",
	"Top pipe's height",
	"Bottom pipe's height",
}

// Policy maps an observation to a flap decision.
type Policy interface {
	Decide(obs Observation) (bool, error)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(obs Observation) (bool, error)

// Decide implements Policy.
func (f PolicyFunc) Decide(obs Observation) (bool, error) { return f(obs) }

// Never is a policy that never flaps.
var Never = PolicyFunc(func(Observation) (bool, error) { return false, nil })

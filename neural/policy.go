package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// InputScale multiplies each observation before it reaches the network.
// A zero scale is treated as 1.
type InputScale [ObservationInputs]float64

// FieldScale normalizes observations by the field size: vertical inputs by
// height and the horizontal one by width.
func FieldScale(width, height float64) InputScale {
	return InputScale{1 / height, 1 / width, 1 / height, 1 / height}
}

// NetworkPolicy flaps when the network output exceeds a threshold.
// It implements sim.Policy and is owned by a single agent.
type NetworkPolicy struct {
	brain     *BrainController
	threshold float64
	scale     InputScale
	obs       []float64

	lastOutput float64
}

// NewNetworkPolicy builds the phenotype of genome.
func NewNetworkPolicy(genome *genetics.Genome, threshold float64, scale InputScale) (*NetworkPolicy, error) {
	brain, err := NewBrainController(genome)
	if err != nil {
		return nil, fmt.Errorf("genome %d: %w", genome.Id, err)
	}
	return &NetworkPolicy{
		brain:     brain,
		threshold: threshold,
		scale:     scale,
		obs:       make([]float64, ObservationInputs),
	}, nil
}

// Decide implements sim.Policy.
func (p *NetworkPolicy) Decide(obs sim.Observation) (bool, error) {
	for i, v := range obs.Inputs() {
		if s := p.scale[i]; s != 0 {
			v *= s
		}
		p.obs[i] = v
	}

	out, err := p.brain.Think(p.obs)
	if err != nil {
		return false, err
	}
	if len(out) == 0 {
		return false, fmt.Errorf("network produced no outputs")
	}
	p.lastOutput = out[0]
	return out[0] > p.threshold, nil
}

// LastOutput returns the most recent raw network output.
func (p *NetworkPolicy) LastOutput() float64 { return p.lastOutput }

// Brain returns the wrapped controller.
func (p *NetworkPolicy) Brain() *BrainController { return p.brain }

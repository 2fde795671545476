package neural

import (
	"github.com/yaricom/goNEAT/v4/neat"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"

	"github.com/KevinHern/flappy-bird-ai/config"
)

// ObservationInputs is the number of game observations fed to the brain.
const ObservationInputs = 4

// BrainInputs is the number of input nodes: the observations plus a bias
// input held at 1.0.
const BrainInputs = ObservationInputs + 1

// BrainOutputs is the number of outputs from the brain network (flap).
const BrainOutputs = 1

// Node ID layout of a fresh brain genome. Hidden nodes get IDs after these.
const (
	firstInputID = 1
	biasNodeID   = BrainInputs
	outputNodeID = BrainInputs + 1
	firstHidden  = outputNodeID + BrainOutputs
)

// Config holds the neural settings used by the trainer and policies.
type Config struct {
	NEAT *neat.Options

	FlapThreshold         float64
	InitialConnectionProb float64
	InitialWeightRange    float64
	MaxWeight             float64
	Elitism               int
	ElitismMinSpecies     int
}

// NewConfig maps the loaded configuration onto neat.Options.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		NEAT:                  NEATOptions(cfg.NEAT, cfg.Population.Size),
		FlapThreshold:         cfg.Neural.FlapThreshold,
		InitialConnectionProb: cfg.Neural.InitialConnectionProb,
		InitialWeightRange:    cfg.Neural.InitialWeightRange,
		MaxWeight:             cfg.Neural.MaxWeight,
		Elitism:               cfg.NEAT.Elitism,
		ElitismMinSpecies:     cfg.NEAT.ElitismMinSpecies,
	}
}

// NEATOptions returns NEAT options for the brain genomes. Genomes carry no
// traits, so trait mutation stays off.
func NEATOptions(c config.NEATConfig, popSize int) *neat.Options {
	return &neat.Options{
		TraitParamMutProb:     0,
		TraitMutationPower:    0,
		MutateRandomTraitProb: 0,

		WeightMutPower:         c.WeightMutPower,
		MutateLinkWeightsProb:  c.MutateLinkWeightsProb,
		MutateAddNodeProb:      c.MutateAddNodeProb,
		MutateAddLinkProb:      c.MutateAddLinkProb,
		MutateToggleEnableProb: c.MutateToggleEnableProb,
		MutateOnlyProb:         c.MutateOnlyProb,

		MateMultipointProb:    0.6,
		MateMultipointAvgProb: 0.4,
		MateSinglepointProb:   0,
		MateOnlyProb:          c.MateOnlyProb,
		InterspeciesMateRate:  c.InterspeciesMateRate,
		RecurOnlyProb:         0,

		CompatThreshold: c.CompatThreshold,
		DisjointCoeff:   c.DisjointCoeff,
		ExcessCoeff:     c.ExcessCoeff,
		MutdiffCoeff:    c.MutdiffCoeff,

		DropOffAge:     c.DropOffAge,
		SurvivalThresh: c.SurvivalThresh,

		PopSize: popSize,

		NodeActivators:     HiddenActivators(),
		NodeActivatorsProb: []float64{0.5, 0.5},
	}
}

// HiddenActivators are the activation functions assigned to new hidden nodes.
func HiddenActivators() []neatmath.NodeActivationType {
	return []neatmath.NodeActivationType{
		neatmath.SigmoidSteepenedActivation,
		neatmath.TanhActivation,
	}
}

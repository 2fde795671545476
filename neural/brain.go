// Package neural builds the flap network on goNEAT genomes and evolves a
// population of them with NEAT.
package neural

import (
	"fmt"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// BrainController wraps a goNEAT network for runtime evaluation.
type BrainController struct {
	Genome  *genetics.Genome
	network *network.Network
	depth   int
	inputs  []float64
}

// NewBrainController creates a controller from a genome.
func NewBrainController(genome *genetics.Genome) (*BrainController, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}

	// Activate with depth-based steps for proper signal propagation
	depth, err := phenotype.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}

	return &BrainController{
		Genome:  genome,
		network: phenotype,
		depth:   depth,
		inputs:  make([]float64, BrainInputs),
	}, nil
}

// Think feeds the observations (without bias) through the network and returns
// its outputs. The bias input is appended here.
func (b *BrainController) Think(observations []float64) ([]float64, error) {
	if len(observations) != ObservationInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", ObservationInputs, len(observations))
	}
	copy(b.inputs, observations)
	b.inputs[ObservationInputs] = 1.0

	if err := b.network.LoadSensors(b.inputs); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	for i := 0; i < b.depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	// Flush network state for next tick
	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// newBrainNodes returns the input, bias and output nodes of a fresh genome.
func newBrainNodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, BrainInputs+BrainOutputs)

	// Input nodes, bias last (IDs 1 to BrainInputs)
	for i := 0; i < BrainInputs; i++ {
		node := network.NewNNode(firstInputID+i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}

	for i := 0; i < BrainOutputs; i++ {
		node := network.NewNNode(outputNodeID+i, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, node)
	}
	return nodes
}

// initialInnovation numbers the input-to-output links of a fresh genome so
// every founder shares them.
func initialInnovation(input, output int) int64 {
	return int64(input*BrainOutputs+output) + 1
}

// CreateBrainGenome creates a founder genome. Each input-output link exists
// with probability connectionProb; weights are uniform in [-weightRange,
// weightRange]. Every output keeps at least one incoming link.
func CreateBrainGenome(id int, rng *rand.Rand, connectionProb, weightRange float64) *genetics.Genome {
	nodes := newBrainNodes()
	genes := make([]*genetics.Gene, 0, BrainInputs*BrainOutputs)

	for j := 0; j < BrainOutputs; j++ {
		connected := false
		for i := 0; i < BrainInputs; i++ {
			if rng.Float64() >= connectionProb {
				continue
			}
			genes = append(genes, genetics.NewGeneWithTrait(
				nil,
				(rng.Float64()*2-1)*weightRange,
				nodes[i],
				nodes[BrainInputs+j],
				false,
				initialInnovation(i, j),
				0,
			))
			connected = true
		}

		if !connected {
			i := rng.Intn(BrainInputs)
			genes = append(genes, genetics.NewGeneWithTrait(
				nil,
				(rng.Float64()*2-1)*weightRange,
				nodes[i],
				nodes[BrainInputs+j],
				false,
				initialInnovation(i, j),
				0,
			))
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// CreateMinimalBrainGenome creates a fully connected genome with fixed weights.
// Useful for tests and as a baseline.
func CreateMinimalBrainGenome(id int, weight float64) *genetics.Genome {
	nodes := newBrainNodes()
	genes := make([]*genetics.Gene, 0, BrainInputs*BrainOutputs)
	for i := 0; i < BrainInputs; i++ {
		for j := 0; j < BrainOutputs; j++ {
			genes = append(genes, genetics.NewGeneWithTrait(
				nil, weight, nodes[i], nodes[BrainInputs+j], false, initialInnovation(i, j), 0,
			))
		}
	}
	return genetics.NewGenome(id, nil, nodes, genes)
}

// maxInitialInnovation is the highest innovation number a founder can carry.
const maxInitialInnovation = int64(BrainInputs * BrainOutputs)

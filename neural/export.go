package neural

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// OutputNames labels the brain outputs in exports.
var OutputNames = []string{"Flap"}

// NetworkLayer is one layer of an exported network. Weights has one row per
// node and one column per entry of Sources.
type NetworkLayer struct {
	Layer       int         `json:"layer"`
	Nodes       int         `json:"nodes"`
	NodeIDs     []int       `json:"node_ids"`
	Sources     []int       `json:"sources"`
	Weights     [][]float64 `json:"weights"`
	Biases      []float64   `json:"biases"`
	Activations []string    `json:"afunctions"`
}

// NetworkExport is a layered, framework-free description of a brain.
type NetworkExport struct {
	GenomeID int            `json:"genome_id"`
	Inputs   []string       `json:"inputs"`
	Outputs  []string       `json:"outputs"`
	InputIDs []int          `json:"input_ids"`
	Layers   []NetworkLayer `json:"layers"`
}

var activationNames = map[neatmath.NodeActivationType]string{
	neatmath.SigmoidSteepenedActivation: "sigmoid",
	neatmath.TanhActivation:             "tanh",
	neatmath.LinearActivation:           "identity",
	neatmath.GaussianActivation:         "gauss",
	neatmath.SineActivation:             "sin",
}

func activationName(t neatmath.NodeActivationType) string {
	if name, ok := activationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("activation_%d", t)
}

// ExportNetwork arranges the enabled part of genome into layers. A node's
// layer is the length of the longest enabled path reaching it from an input;
// outputs always share the last layer. Links from the bias input become
// biases instead of weight columns.
func ExportNetwork(genome *genetics.Genome, inputNames []string) (*NetworkExport, error) {
	if genome == nil {
		return nil, fmt.Errorf("export: nil genome")
	}

	nodes := make(map[int]*network.NNode, len(genome.Nodes))
	var inputIDs, outputIDs []int
	for _, n := range genome.Nodes {
		nodes[n.Id] = n
		switch n.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			if n.Id != biasNodeID {
				inputIDs = append(inputIDs, n.Id)
			}
		case network.OutputNeuron:
			outputIDs = append(outputIDs, n.Id)
		}
	}
	sort.Ints(inputIDs)
	sort.Ints(outputIDs)

	incoming := make(map[int][]*genetics.Gene)
	for _, g := range genome.Genes {
		if g.IsEnabled && !g.Link.IsRecurrent {
			incoming[g.Link.OutNode.Id] = append(incoming[g.Link.OutNode.Id], g)
		}
	}

	depth := make(map[int]int)
	visiting := make(map[int]bool)
	var depthOf func(id int) (int, error)
	depthOf = func(id int) (int, error) {
		if d, ok := depth[id]; ok {
			return d, nil
		}
		n := nodes[id]
		if n == nil {
			return 0, fmt.Errorf("export: link references unknown node %d", id)
		}
		if n.NeuronType == network.InputNeuron || n.NeuronType == network.BiasNeuron {
			depth[id] = 0
			return 0, nil
		}
		if visiting[id] {
			return 0, fmt.Errorf("export: cycle through node %d", id)
		}
		visiting[id] = true
		d := 1
		for _, g := range incoming[id] {
			src, err := depthOf(g.Link.InNode.Id)
			if err != nil {
				return 0, err
			}
			d = max(d, src+1)
		}
		visiting[id] = false
		depth[id] = d
		return d, nil
	}

	last := 1
	for id, n := range nodes {
		if n.NeuronType != network.HiddenNeuron && n.NeuronType != network.OutputNeuron {
			continue
		}
		d, err := depthOf(id)
		if err != nil {
			return nil, err
		}
		last = max(last, d)
	}
	// hidden nodes may not sit in the output layer
	for id, n := range nodes {
		if n.NeuronType == network.HiddenNeuron && depth[id] >= last {
			last = depth[id] + 1
		}
	}
	for _, id := range outputIDs {
		depth[id] = last
	}

	byLayer := make([][]int, last+1)
	for id, d := range depth {
		if nodes[id].NeuronType == network.HiddenNeuron || nodes[id].NeuronType == network.OutputNeuron {
			byLayer[d] = append(byLayer[d], id)
		}
	}

	exp := &NetworkExport{
		GenomeID: genome.Id,
		Inputs:   inputNames,
		Outputs:  OutputNames,
		InputIDs: inputIDs,
	}
	for layer := 1; layer <= last; layer++ {
		ids := byLayer[layer]
		if len(ids) == 0 {
			continue
		}
		sort.Ints(ids)

		srcSet := make(map[int]bool)
		for _, id := range ids {
			for _, g := range incoming[id] {
				if g.Link.InNode.Id != biasNodeID {
					srcSet[g.Link.InNode.Id] = true
				}
			}
		}
		sources := make([]int, 0, len(srcSet))
		for id := range srcSet {
			sources = append(sources, id)
		}
		sort.Ints(sources)
		col := make(map[int]int, len(sources))
		for i, id := range sources {
			col[id] = i
		}

		nl := NetworkLayer{
			Layer:       len(exp.Layers),
			Nodes:       len(ids),
			NodeIDs:     ids,
			Sources:     sources,
			Weights:     make([][]float64, len(ids)),
			Biases:      make([]float64, len(ids)),
			Activations: make([]string, len(ids)),
		}
		for row, id := range ids {
			nl.Weights[row] = make([]float64, len(sources))
			nl.Activations[row] = activationName(nodes[id].ActivationType)
			for _, g := range incoming[id] {
				if g.Link.InNode.Id == biasNodeID {
					nl.Biases[row] += g.Link.ConnectionWeight
					continue
				}
				nl.Weights[row][col[g.Link.InNode.Id]] += g.Link.ConnectionWeight
			}
		}
		exp.Layers = append(exp.Layers, nl)
	}
	return exp, nil
}

// WriteNetworkJSON exports genome and writes it to path.
func WriteNetworkJSON(path string, genome *genetics.Genome, inputNames []string) error {
	exp, err := ExportNetwork(genome, inputNames)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal network: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write network: %w", err)
	}
	return nil
}

package neural

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// EncodingForPath picks the goNEAT genome encoding from a file extension:
// .yml and .yaml use YAML, anything else the plain text format.
func EncodingForPath(path string) genetics.GenomeEncoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return genetics.YAMLGenomeEncoding
	default:
		return genetics.PlainGenomeEncoding
	}
}

// SaveGenome writes genome to path in the encoding chosen by its extension.
func SaveGenome(path string, genome *genetics.Genome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create genome file: %w", err)
	}
	defer f.Close()

	w, err := genetics.NewGenomeWriter(f, EncodingForPath(path))
	if err != nil {
		return fmt.Errorf("genome writer: %w", err)
	}
	if err := w.WriteGenome(genome); err != nil {
		return fmt.Errorf("write genome %d: %w", genome.Id, err)
	}
	return nil
}

// LoadGenome reads a genome written by SaveGenome.
func LoadGenome(path string) (*genetics.Genome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genome file: %w", err)
	}
	defer f.Close()

	r, err := genetics.NewGenomeReader(f, EncodingForPath(path))
	if err != nil {
		return nil, fmt.Errorf("genome reader: %w", err)
	}
	genome, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read genome: %w", err)
	}
	if err := CheckBrainLayout(genome); err != nil {
		return nil, err
	}
	return genome, nil
}

// CheckBrainLayout verifies genome has the input and output nodes of a brain.
func CheckBrainLayout(genome *genetics.Genome) error {
	inputs, outputs := 0, 0
	for _, n := range genome.Nodes {
		switch n.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			inputs++
		case network.OutputNeuron:
			outputs++
		}
	}
	if inputs != BrainInputs || outputs != BrainOutputs {
		return fmt.Errorf("genome %d has %d inputs and %d outputs, want %d and %d",
			genome.Id, inputs, outputs, BrainInputs, BrainOutputs)
	}
	return nil
}

// NodeRecord is the checkpoint form of a genome node.
type NodeRecord struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Activation int    `json:"activation"`
}

// GeneRecord is the checkpoint form of a connection gene.
type GeneRecord struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Recurrent  bool    `json:"recurrent,omitempty"`
	Innovation int64   `json:"innovation"`
	Mutation   float64 `json:"mutation,omitempty"`
}

// GenomeRecord is a genome flattened for JSON checkpoints.
type GenomeRecord struct {
	ID    int          `json:"id"`
	Nodes []NodeRecord `json:"nodes"`
	Genes []GeneRecord `json:"genes"`
}

var neuronTypeNames = map[network.NodeNeuronType]string{
	network.InputNeuron:  "input",
	network.BiasNeuron:   "bias",
	network.HiddenNeuron: "hidden",
	network.OutputNeuron: "output",
}

// ToRecord flattens genome.
func ToRecord(genome *genetics.Genome) GenomeRecord {
	rec := GenomeRecord{
		ID:    genome.Id,
		Nodes: make([]NodeRecord, len(genome.Nodes)),
		Genes: make([]GeneRecord, len(genome.Genes)),
	}
	for i, n := range genome.Nodes {
		rec.Nodes[i] = NodeRecord{ID: n.Id, Type: neuronTypeNames[n.NeuronType], Activation: int(n.ActivationType)}
	}
	for i, g := range genome.Genes {
		rec.Genes[i] = GeneRecord{
			In:         g.Link.InNode.Id,
			Out:        g.Link.OutNode.Id,
			Weight:     g.Link.ConnectionWeight,
			Enabled:    g.IsEnabled,
			Recurrent:  g.Link.IsRecurrent,
			Innovation: g.InnovationNum,
			Mutation:   g.MutationNum,
		}
	}
	return rec
}

// FromRecord rebuilds a genome from its checkpoint form.
func FromRecord(rec GenomeRecord) (*genetics.Genome, error) {
	nodes := make([]*network.NNode, 0, len(rec.Nodes))
	byID := make(map[int]*network.NNode, len(rec.Nodes))
	for _, nr := range rec.Nodes {
		var kind network.NodeNeuronType
		found := false
		for t, name := range neuronTypeNames {
			if name == nr.Type {
				kind, found = t, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("genome %d: node %d has unknown type %q", rec.ID, nr.ID, nr.Type)
		}
		if byID[nr.ID] != nil {
			return nil, fmt.Errorf("genome %d: duplicate node %d", rec.ID, nr.ID)
		}
		n := network.NewNNode(nr.ID, kind)
		n.ActivationType = neatmath.NodeActivationType(nr.Activation)
		byID[nr.ID] = n
		nodes = append(nodes, n)
	}

	genes := make([]*genetics.Gene, 0, len(rec.Genes))
	for _, gr := range rec.Genes {
		in, out := byID[gr.In], byID[gr.Out]
		if in == nil || out == nil {
			return nil, fmt.Errorf("genome %d: gene %d links unknown node", rec.ID, gr.Innovation)
		}
		g := genetics.NewGeneWithTrait(nil, gr.Weight, in, out, gr.Recurrent, gr.Innovation, gr.Mutation)
		g.IsEnabled = gr.Enabled
		genes = append(genes, g)
	}

	genome := genetics.NewGenome(rec.ID, nil, nodes, genes)
	if err := CheckBrainLayout(genome); err != nil {
		return nil, err
	}
	return genome, nil
}

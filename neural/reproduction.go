package neural

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb     = 0.9 // Probability of perturbing vs replacing weights
	maxLinkAttempts = 20  // Maximum attempts to find a new connection
	disableOnMate   = 0.75
)

// GenomeIDGenerator hands out genome IDs, hidden node IDs and innovation
// numbers. Structural mutations repeated within one generation share their
// innovation numbers.
type GenomeIDGenerator struct {
	nextID       int
	nextNodeID   int
	nextInnovNum int64

	links  map[int64]int64
	splits map[int64]splitRecord
}

type splitRecord struct {
	nodeID  int
	inInnov int64
	outInno int64
}

// NewGenomeIDGenerator creates a generator positioned after the founder
// genome layout.
func NewGenomeIDGenerator() *GenomeIDGenerator {
	return RestoreGenomeIDGenerator(1, firstHidden, maxInitialInnovation+1)
}

// RestoreGenomeIDGenerator resumes a generator from saved counters.
func RestoreGenomeIDGenerator(nextID, nextNodeID int, nextInnov int64) *GenomeIDGenerator {
	return &GenomeIDGenerator{
		nextID:       nextID,
		nextNodeID:   nextNodeID,
		nextInnovNum: nextInnov,
		links:        make(map[int64]int64),
		splits:       make(map[int64]splitRecord),
	}
}

// Counters returns the generator state for checkpoints.
func (g *GenomeIDGenerator) Counters() (nextID, nextNodeID int, nextInnov int64) {
	return g.nextID, g.nextNodeID, g.nextInnovNum
}

// NextID returns the next unique genome ID.
func (g *GenomeIDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *GenomeIDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// Observe advances the counters past everything genome already uses.
func (g *GenomeIDGenerator) Observe(genome *genetics.Genome) {
	g.nextID = max(g.nextID, genome.Id+1)
	for _, node := range genome.Nodes {
		g.nextNodeID = max(g.nextNodeID, node.Id+1)
	}
	for _, gene := range genome.Genes {
		g.nextInnovNum = max(g.nextInnovNum, gene.InnovationNum+1)
	}
}

// ResetGeneration forgets the structural mutations of the last generation.
func (g *GenomeIDGenerator) ResetGeneration() {
	clear(g.links)
	clear(g.splits)
}

func (g *GenomeIDGenerator) linkInnovation(inID, outID int) int64 {
	key := connectionKey(inID, outID)
	if innov, ok := g.links[key]; ok {
		return innov
	}
	innov := g.NextInnovation()
	g.links[key] = innov
	return innov
}

func (g *GenomeIDGenerator) split(geneInnov int64) splitRecord {
	if rec, ok := g.splits[geneInnov]; ok {
		return rec
	}
	rec := splitRecord{nodeID: g.nextNodeID, inInnov: g.NextInnovation(), outInno: g.NextInnovation()}
	g.nextNodeID++
	g.splits[geneInnov] = rec
	return rec
}

// CrossoverGenomes performs NEAT-style crossover between two parent genomes.
// Genes are aligned by innovation number and the fitter parent contributes
// disjoint and excess genes. With average set, matching weights are averaged.
func CrossoverGenomes(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int, average bool, rng *rand.Rand) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, fmt.Errorf("cannot crossover nil genomes")
	}

	var primary, secondary *genetics.Genome
	if fitness1 >= fitness2 {
		primary, secondary = parent1, parent2
	} else {
		primary, secondary = parent2, parent1
	}

	secondaryGenes := make(map[int64]*genetics.Gene, len(secondary.Genes))
	for _, gene := range secondary.Genes {
		secondaryGenes[gene.InnovationNum] = gene
	}

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNodeMap[node.Id] = copyNode(node)
	}

	primaryGenes := make([]*genetics.Gene, len(primary.Genes))
	copy(primaryGenes, primary.Genes)
	sort.Slice(primaryGenes, func(i, j int) bool { return primaryGenes[i].InnovationNum < primaryGenes[j].InnovationNum })

	childGenes := make([]*genetics.Gene, 0, len(primaryGenes))
	for _, pGene := range primaryGenes {
		weight := pGene.Link.ConnectionWeight
		enabled := pGene.IsEnabled

		if sGene, ok := secondaryGenes[pGene.InnovationNum]; ok {
			switch {
			case average:
				weight = (weight + sGene.Link.ConnectionWeight) / 2
			case rng.Float64() < 0.5:
				weight = sGene.Link.ConnectionWeight
			}
			if !pGene.IsEnabled || !sGene.IsEnabled {
				enabled = rng.Float64() >= disableOnMate
			}
		}

		inNode := childNodeMap[pGene.Link.InNode.Id]
		outNode := childNodeMap[pGene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		childGene := genetics.NewGeneWithTrait(nil, weight, inNode, outNode, pGene.Link.IsRecurrent, pGene.InnovationNum, pGene.MutationNum)
		childGene.IsEnabled = enabled
		childGenes = append(childGenes, childGene)
	}

	ensureOutputsConnected(childGenes)
	return genetics.NewGenome(childID, nil, sortedNodes(childNodeMap), childGenes), nil
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

func sortedNodes(m map[int]*network.NNode) []*network.NNode {
	nodes := make([]*network.NNode, 0, len(m))
	for _, node := range m {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Id < nodes[j].Id })
	return nodes
}

// ensureOutputsConnected re-enables one link into any output left without an
// enabled incoming link.
func ensureOutputsConnected(genes []*genetics.Gene) {
	enabled := make(map[int]bool)
	first := make(map[int]*genetics.Gene)
	for _, gene := range genes {
		out := gene.Link.OutNode
		if out.NeuronType != network.OutputNeuron {
			continue
		}
		if first[out.Id] == nil {
			first[out.Id] = gene
		}
		if gene.IsEnabled {
			enabled[out.Id] = true
		}
	}
	for id, gene := range first {
		if !enabled[id] {
			gene.IsEnabled = true
		}
	}
}

func mutateWeights(genome *genetics.Genome, power, limit float64, rng *rand.Rand) {
	for _, gene := range genome.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += (rng.Float64()*2 - 1) * power
		} else {
			gene.Link.ConnectionWeight = (rng.Float64()*2 - 1) * power
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight, limit)
	}
}

// clampWeight clamps a connection weight to [-limit, limit].
func clampWeight(w, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, w))
}

func addNode(genome *genetics.Genome, idGen *GenomeIDGenerator, activators []neatmath.NodeActivationType, rng *rand.Rand) bool {
	enabledGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		// splitting a bias link adds nothing
		if gene.IsEnabled && gene.Link.InNode.Id != biasNodeID {
			enabledGenes = append(enabledGenes, gene)
		}
	}
	if len(enabledGenes) == 0 {
		return false
	}

	geneToSplit := enabledGenes[rng.Intn(len(enabledGenes))]
	rec := idGen.split(geneToSplit.InnovationNum)
	for _, node := range genome.Nodes {
		if node.Id == rec.nodeID {
			// this genome already split the same link
			return false
		}
	}

	geneToSplit.IsEnabled = false

	newNode := network.NewNNode(rec.nodeID, network.HiddenNeuron)
	newNode.ActivationType = activators[rng.Intn(len(activators))]

	// old_in -> new_node carries 1.0, new_node -> old_out keeps the old weight
	gene1 := genetics.NewGeneWithTrait(nil, 1.0, geneToSplit.Link.InNode, newNode, false, rec.inInnov, 0)
	gene2 := genetics.NewGeneWithTrait(nil, geneToSplit.Link.ConnectionWeight, newNode, geneToSplit.Link.OutNode, false, rec.outInno, 0)

	genome.Nodes = append(genome.Nodes, newNode)
	genome.Genes = append(genome.Genes, gene1, gene2)
	return true
}

func addLink(genome *genetics.Genome, idGen *GenomeIDGenerator, weightRange float64, rng *rand.Rand) bool {
	var sources, targets []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			sources = append(sources, node)
		case network.OutputNeuron:
			targets = append(targets, node)
		case network.HiddenNeuron:
			sources = append(sources, node)
			targets = append(targets, node)
		}
	}
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool, len(genome.Genes))
	for _, gene := range genome.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[rng.Intn(len(sources))]
		target := targets[rng.Intn(len(targets))]

		if source.Id == target.Id || existing[connectionKey(source.Id, target.Id)] {
			continue
		}
		// feed-forward only
		if reaches(genome, target.Id, source.Id) {
			continue
		}

		newGene := genetics.NewGeneWithTrait(
			nil,
			(rng.Float64()*2-1)*weightRange,
			source,
			target,
			false,
			idGen.linkInnovation(source.Id, target.Id),
			0,
		)
		genome.Genes = append(genome.Genes, newGene)
		return true
	}
	return false
}

// reaches reports whether a path of links leads from one node to another.
func reaches(genome *genetics.Genome, from, to int) bool {
	adj := make(map[int][]int)
	for _, gene := range genome.Genes {
		adj[gene.Link.InNode.Id] = append(adj[gene.Link.InNode.Id], gene.Link.OutNode.Id)
	}
	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		for _, next := range adj[n] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

func toggleEnable(genome *genetics.Genome, rng *rand.Rand) {
	if len(genome.Genes) == 0 {
		return
	}
	gene := genome.Genes[rng.Intn(len(genome.Genes))]
	gene.IsEnabled = !gene.IsEnabled
	if !gene.IsEnabled {
		ensureOutputsConnected(genome.Genes)
	}
}

// MutateBrainGenome applies weight and structural mutations with the
// probabilities in opts.
func MutateBrainGenome(genome *genetics.Genome, cfg *Config, idGen *GenomeIDGenerator, rng *rand.Rand) (bool, error) {
	if genome == nil {
		return false, fmt.Errorf("cannot mutate nil genome")
	}
	opts := cfg.NEAT

	// Structural mutations replace weight mutation, as in classic NEAT.
	if rng.Float64() < opts.MutateAddNodeProb {
		if addNode(genome, idGen, opts.NodeActivators, rng) {
			return true, nil
		}
	}
	if rng.Float64() < opts.MutateAddLinkProb {
		if addLink(genome, idGen, cfg.InitialWeightRange, rng) {
			return true, nil
		}
	}

	mutated := false
	if rng.Float64() < opts.MutateLinkWeightsProb {
		mutateWeights(genome, opts.WeightMutPower, cfg.MaxWeight, rng)
		mutated = true
	}
	if rng.Float64() < opts.MutateToggleEnableProb {
		toggleEnable(genome, rng)
		mutated = true
	}
	return mutated, nil
}

// CloneGenome creates a deep copy of a genome with a new ID.
func CloneGenome(genome *genetics.Genome, newID int) (*genetics.Genome, error) {
	if genome == nil {
		return nil, fmt.Errorf("cannot clone nil genome")
	}

	nodeMap := make(map[int]*network.NNode, len(genome.Nodes))
	newNodes := make([]*network.NNode, 0, len(genome.Nodes))
	for _, node := range genome.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

// GenomeCompatibility calculates the compatibility distance between two genomes.
func GenomeCompatibility(g1, g2 *genetics.Genome, opts *neat.Options) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := make(map[int64]*genetics.Gene, len(g1.Genes))
	maxInnov1 := int64(0)
	for _, gene := range g1.Genes {
		genes1[gene.InnovationNum] = gene
		maxInnov1 = max(maxInnov1, gene.InnovationNum)
	}

	genes2 := make(map[int64]*genetics.Gene, len(g2.Genes))
	maxInnov2 := int64(0)
	for _, gene := range g2.Genes {
		genes2[gene.InnovationNum] = gene
		maxInnov2 = max(maxInnov2, gene.InnovationNum)
	}

	matching, disjoint, excess := 0, 0, 0
	weightDiff := 0.0

	for innov, gene1 := range genes1 {
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for innov := range genes2 {
		if _, exists := genes1[innov]; !exists {
			if innov > maxInnov1 {
				excess++
			} else {
				disjoint++
			}
		}
	}

	// Don't normalize small genomes
	n := float64(max(len(g1.Genes), len(g2.Genes)))
	if n < 20 {
		n = 1
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (opts.ExcessCoeff*float64(excess)+opts.DisjointCoeff*float64(disjoint))/n +
		opts.MutdiffCoeff*avgWeightDiff
}

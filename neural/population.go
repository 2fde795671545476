package neural

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Organism is one genome with the fitness of its last evaluation.
type Organism struct {
	Genome    *genetics.Genome
	Fitness   float64
	SpeciesID int
}

// Population is a generational NEAT population of brain genomes.
type Population struct {
	Organisms  []*Organism
	Species    *SpeciesManager
	IDs        *GenomeIDGenerator
	Generation int

	cfg *Config
	rng *rand.Rand
}

// NewPopulation creates cfg.NEAT.PopSize founders and speciates them.
func NewPopulation(cfg *Config, rng *rand.Rand) *Population {
	p := &Population{
		Species: NewSpeciesManager(cfg.NEAT),
		IDs:     NewGenomeIDGenerator(),
		cfg:     cfg,
		rng:     rng,
	}
	p.Organisms = make([]*Organism, cfg.NEAT.PopSize)
	for i := range p.Organisms {
		g := CreateBrainGenome(p.IDs.NextID(), rng, cfg.InitialConnectionProb, cfg.InitialWeightRange)
		p.Organisms[i] = &Organism{Genome: g}
	}
	p.speciate()
	return p
}

// RestorePopulation rebuilds a population from saved genomes.
func RestorePopulation(cfg *Config, rng *rand.Rand, generation int, genomes []*genetics.Genome, ids *GenomeIDGenerator) (*Population, error) {
	if len(genomes) == 0 {
		return nil, fmt.Errorf("restore population: no genomes")
	}
	p := &Population{
		Species:    NewSpeciesManager(cfg.NEAT),
		IDs:        ids,
		Generation: generation,
		cfg:        cfg,
		rng:        rng,
	}
	p.Organisms = make([]*Organism, len(genomes))
	for i, g := range genomes {
		ids.Observe(g)
		p.Organisms[i] = &Organism{Genome: g}
	}
	p.speciate()
	return p, nil
}

// SeedFrom replaces the population with mutated clones of genome, keeping one
// unmodified copy.
func SeedFrom(cfg *Config, rng *rand.Rand, genome *genetics.Genome) (*Population, error) {
	ids := NewGenomeIDGenerator()
	ids.Observe(genome)
	genomes := make([]*genetics.Genome, cfg.NEAT.PopSize)
	for i := range genomes {
		clone, err := CloneGenome(genome, ids.NextID())
		if err != nil {
			return nil, err
		}
		if i > 0 {
			if _, err := MutateBrainGenome(clone, cfg, ids, rng); err != nil {
				return nil, err
			}
		}
		genomes[i] = clone
	}
	return RestorePopulation(cfg, rng, 0, genomes, ids)
}

func (p *Population) speciate() {
	genomes := make([]*genetics.Genome, len(p.Organisms))
	for i, o := range p.Organisms {
		genomes[i] = o.Genome
	}
	for i, id := range p.Species.Speciate(genomes) {
		p.Organisms[i].SpeciesID = id
	}
}

// Fitness returns the fitness of every organism in population order.
func (p *Population) Fitness() []float64 {
	out := make([]float64, len(p.Organisms))
	for i, o := range p.Organisms {
		out[i] = o.Fitness
	}
	return out
}

// Epoch replaces the population with the next generation. Fitness must have
// been assigned to every organism.
func (p *Population) Epoch() error {
	fitness := p.Fitness()
	p.Species.EndGeneration(fitness)
	p.Species.AllotOffspring(p.cfg.NEAT.PopSize)
	p.IDs.ResetGeneration()

	// Champions of every species, for interspecies mating.
	champions := make([]*Organism, 0, len(p.Species.Species))
	ranked := make(map[int][]*Organism, len(p.Species.Species))
	for _, sp := range p.Species.Species {
		members := make([]*Organism, len(sp.Members))
		for i, idx := range sp.Members {
			members[i] = p.Organisms[idx]
		}
		sort.SliceStable(members, func(a, b int) bool { return members[a].Fitness > members[b].Fitness })
		ranked[sp.ID] = members
		champions = append(champions, members[0])
	}

	next := make([]*Organism, 0, p.cfg.NEAT.PopSize)
	for _, sp := range p.Species.Species {
		members := ranked[sp.ID]
		children, err := p.breed(sp, members, champions)
		if err != nil {
			return fmt.Errorf("species %d: %w", sp.ID, err)
		}
		next = append(next, children...)

		// The best member represents the species in the next round.
		sp.Representative = members[0].Genome
	}

	if len(next) == 0 {
		return fmt.Errorf("generation %d produced no offspring", p.Generation)
	}
	p.Organisms = next
	p.Generation++
	p.speciate()
	return nil
}

func (p *Population) breed(sp *Species, members, champions []*Organism) ([]*Organism, error) {
	opts := p.cfg.NEAT
	children := make([]*Organism, 0, sp.Offspring)

	if sp.Offspring > 0 && len(members) >= p.cfg.ElitismMinSpecies {
		for i := 0; i < p.cfg.Elitism && i < len(members) && len(children) < sp.Offspring; i++ {
			clone, err := CloneGenome(members[i].Genome, p.IDs.NextID())
			if err != nil {
				return nil, err
			}
			children = append(children, &Organism{Genome: clone})
		}
	}

	parents := int(math.Ceil(opts.SurvivalThresh * float64(len(members))))
	parents = max(1, min(parents, len(members)))
	pool := members[:parents]

	for len(children) < sp.Offspring {
		mom := pool[p.rng.Intn(len(pool))]

		var child *genetics.Genome
		var err error
		if len(pool) == 1 && len(champions) == 1 || p.rng.Float64() < opts.MutateOnlyProb {
			child, err = CloneGenome(mom.Genome, p.IDs.NextID())
			if err == nil {
				_, err = MutateBrainGenome(child, p.cfg, p.IDs, p.rng)
			}
		} else {
			dad := pool[p.rng.Intn(len(pool))]
			if p.rng.Float64() < opts.InterspeciesMateRate {
				dad = champions[p.rng.Intn(len(champions))]
			}
			average := p.rng.Float64() < opts.MateMultipointAvgProb
			child, err = CrossoverGenomes(mom.Genome, dad.Genome, mom.Fitness, dad.Fitness, p.IDs.NextID(), average, p.rng)
			if err == nil && (mom == dad || p.rng.Float64() >= opts.MateOnlyProb) {
				_, err = MutateBrainGenome(child, p.cfg, p.IDs, p.rng)
			}
		}
		if err != nil {
			return nil, err
		}
		children = append(children, &Organism{Genome: child})
	}
	return children, nil
}

// Best returns the fittest organism. Ties go to the earliest organism.
func (p *Population) Best() (*Organism, int) {
	best, idx, ok := sim.Fittest(p.Organisms, func(o *Organism) float64 { return o.Fitness })
	if !ok {
		return nil, -1
	}
	return best, idx
}

// Config returns the neural configuration of the population.
func (p *Population) Config() *Config { return p.cfg }

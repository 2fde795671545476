package neural

import (
	"math"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Species represents a group of genetically similar organisms.
type Species struct {
	ID             int
	Representative *genetics.Genome // Used for compatibility comparisons
	Members        []int            // Population indices of members
	BestFitness    float64          // Best raw fitness ever seen
	AvgFitness     float64          // Mean raw fitness this generation
	Age            int              // Generations since species was created
	Staleness      int              // Generations without improving BestFitness
	Offspring      int              // Offspring allotted for the next generation
}

// SpeciesManager manages speciation for the population.
type SpeciesManager struct {
	Species       []*Species
	opts          *neat.Options
	nextSpeciesID int
	generation    int
}

// NewSpeciesManager creates a new species manager.
func NewSpeciesManager(opts *neat.Options) *SpeciesManager {
	return &SpeciesManager{
		Species:       make([]*Species, 0),
		opts:          opts,
		nextSpeciesID: 1,
	}
}

// Speciate clears every species' members and assigns each genome to the first
// compatible species, creating new ones as needed. Returns the species ID for
// each genome. Species left without members are dropped.
func (sm *SpeciesManager) Speciate(genomes []*genetics.Genome) []int {
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}

	ids := make([]int, len(genomes))
	for i, g := range genomes {
		sp := sm.find(g)
		if sp == nil {
			sp = sm.newSpecies(g)
		}
		sp.Members = append(sp.Members, i)
		ids[i] = sp.ID
	}

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) > 0 {
			active = append(active, sp)
		}
	}
	sm.Species = active
	return ids
}

func (sm *SpeciesManager) find(genome *genetics.Genome) *Species {
	for _, sp := range sm.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(genome, sp.Representative, sm.opts) < sm.opts.CompatThreshold {
			return sp
		}
	}
	return nil
}

func (sm *SpeciesManager) newSpecies(rep *genetics.Genome) *Species {
	sp := &Species{
		ID:             sm.nextSpeciesID,
		Representative: rep,
		Members:        make([]int, 0),
		BestFitness:    math.Inf(-1),
	}
	sm.nextSpeciesID++
	sm.Species = append(sm.Species, sp)
	return sp
}

// Get returns the species with the given ID, or nil.
func (sm *SpeciesManager) Get(speciesID int) *Species {
	for _, sp := range sm.Species {
		if sp.ID == speciesID {
			return sp
		}
	}
	return nil
}

// EndGeneration records member fitness, ages species, and drops stale ones.
// The species holding the best organism is never dropped.
func (sm *SpeciesManager) EndGeneration(fitness []float64) {
	sm.generation++

	bestID, best := 0, math.Inf(-1)
	for _, sp := range sm.Species {
		sp.Age++
		total, top := 0.0, math.Inf(-1)
		for _, idx := range sp.Members {
			total += fitness[idx]
			top = math.Max(top, fitness[idx])
		}
		if len(sp.Members) > 0 {
			sp.AvgFitness = total / float64(len(sp.Members))
		}
		if top > sp.BestFitness {
			sp.BestFitness = top
			sp.Staleness = 0
		} else {
			sp.Staleness++
		}
		if top > best {
			best, bestID = top, sp.ID
		}
	}

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) > 0 && (sp.Staleness < sm.opts.DropOffAge || sp.ID == bestID) {
			active = append(active, sp)
		}
	}
	sm.Species = active
}

// AllotOffspring divides popSize children between species in proportion to
// their mean fitness, using the largest remainder method. Fitness is shifted
// so the weakest species still gets a small share.
func (sm *SpeciesManager) AllotOffspring(popSize int) {
	if len(sm.Species) == 0 {
		return
	}

	low := math.Inf(1)
	for _, sp := range sm.Species {
		low = math.Min(low, sp.AvgFitness)
	}

	shares := make([]float64, len(sm.Species))
	total := 0.0
	for i, sp := range sm.Species {
		shares[i] = sp.AvgFitness - low + 1e-3
		total += shares[i]
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(sm.Species))
	assigned := 0
	for i, sp := range sm.Species {
		exact := shares[i] / total * float64(popSize)
		sp.Offspring = int(math.Floor(exact))
		assigned += sp.Offspring
		rems[i] = rem{idx: i, frac: exact - math.Floor(exact)}
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < popSize; i++ {
		sm.Species[rems[i%len(rems)].idx].Offspring++
		assigned++
	}
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count        int
	TotalMembers int
	LargestSize  int
	SmallestSize int
	Generation   int
	BestFitness  float64
}

// SpeciesInfo contains display information about a single species.
type SpeciesInfo struct {
	ID        int
	Size      int
	BestFit   float64
	AvgFit    float64
	Age       int
	Staleness int
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	if len(sm.Species) == 0 {
		return SpeciesStats{Generation: sm.generation}
	}

	stats := SpeciesStats{
		Count:        len(sm.Species),
		SmallestSize: math.MaxInt,
		Generation:   sm.generation,
		BestFitness:  math.Inf(-1),
	}
	for _, sp := range sm.Species {
		size := len(sp.Members)
		stats.TotalMembers += size
		stats.BestFitness = math.Max(stats.BestFitness, sp.BestFitness)
		stats.LargestSize = max(stats.LargestSize, size)
		if size > 0 {
			stats.SmallestSize = min(stats.SmallestSize, size)
		}
	}
	if stats.SmallestSize == math.MaxInt {
		stats.SmallestSize = 0
	}
	return stats
}

// GetTopSpecies returns info about the top N species by size.
func (sm *SpeciesManager) GetTopSpecies(n int) []SpeciesInfo {
	if len(sm.Species) == 0 {
		return nil
	}

	sorted := make([]*Species, len(sm.Species))
	copy(sorted, sm.Species)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Members) > len(sorted[j].Members)
	})

	n = min(n, len(sorted))
	result := make([]SpeciesInfo, n)
	for i := 0; i < n; i++ {
		sp := sorted[i]
		result[i] = SpeciesInfo{
			ID:        sp.ID,
			Size:      len(sp.Members),
			BestFit:   sp.BestFitness,
			AvgFit:    sp.AvgFitness,
			Age:       sp.Age,
			Staleness: sp.Staleness,
		}
	}
	return result
}

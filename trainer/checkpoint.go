package trainer

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/KevinHern/flappy-bird-ai/neural"
	"github.com/KevinHern/flappy-bird-ai/telemetry"
)

// CheckpointVersion is incremented when the format changes.
const CheckpointVersion = 1

// Checkpoint holds everything needed to resume training: the population
// waiting to be evaluated, the counters that keep new IDs unique, and the
// seed the RNG was reset to when the checkpoint was taken.
type Checkpoint struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`

	Generation int   `json:"generation"`
	RNGSeed    int64 `json:"rng_seed"`

	NextGenomeID   int   `json:"next_genome_id"`
	NextNodeID     int   `json:"next_node_id"`
	NextInnovation int64 `json:"next_innovation"`

	Champion *telemetry.HallEntry  `json:"champion,omitempty"`
	Genomes  []neural.GenomeRecord `json:"genomes"`
}

// NewCheckpoint captures pop. The champion may be nil.
func NewCheckpoint(runID string, pop *neural.Population, seed int64, champion *telemetry.HallEntry) *Checkpoint {
	nextID, nextNode, nextInnov := pop.IDs.Counters()
	cp := &Checkpoint{
		Version:        CheckpointVersion,
		RunID:          runID,
		Generation:     pop.Generation,
		RNGSeed:        seed,
		NextGenomeID:   nextID,
		NextNodeID:     nextNode,
		NextInnovation: nextInnov,
		Champion:       champion,
		Genomes:        make([]neural.GenomeRecord, len(pop.Organisms)),
	}
	for i, o := range pop.Organisms {
		cp.Genomes[i] = neural.ToRecord(o.Genome)
	}
	return cp
}

// Population rebuilds the population and the RNG it continues with.
func (cp *Checkpoint) Population(cfg *neural.Config) (*neural.Population, *rand.Rand, error) {
	genomes := make([]*genetics.Genome, len(cp.Genomes))
	for i, rec := range cp.Genomes {
		g, err := neural.FromRecord(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint genome %d: %w", i, err)
		}
		genomes[i] = g
	}

	rng := rand.New(rand.NewSource(cp.RNGSeed))
	ids := neural.RestoreGenomeIDGenerator(cp.NextGenomeID, cp.NextNodeID, cp.NextInnovation)
	pop, err := neural.RestorePopulation(cfg, rng, cp.Generation, genomes, ids)
	if err != nil {
		return nil, nil, err
	}
	return pop, rng, nil
}

// SaveCheckpoint writes cp to dir and returns the file path.
func SaveCheckpoint(cp *Checkpoint, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("checkpoint_%05d.json", cp.Generation))

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}

	return path, nil
}

// LoadCheckpoint reads a checkpoint file. A directory resolves to its latest
// checkpoint.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		latest, err := LatestCheckpoint(path)
		if err != nil {
			return nil, err
		}
		path = latest
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("checkpoint %s: version %d, want %d", path, cp.Version, CheckpointVersion)
	}
	if len(cp.Genomes) == 0 {
		return nil, fmt.Errorf("checkpoint %s holds no genomes", path)
	}

	return &cp, nil
}

// LatestCheckpoint returns the checkpoint in dir with the highest generation.
func LatestCheckpoint(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "checkpoint_*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no checkpoints in %s", dir)
	}
	// Zero-padded generations sort lexically.
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

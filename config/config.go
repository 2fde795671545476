// Package config provides configuration loading and validation for the game,
// the trainer, and the frontends.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned for malformed non-geometry settings. Geometry errors
// wrap sim.ErrInvalidGeometry instead.
var ErrInvalid = errors.New("invalid config")

// Collision detector names.
const (
	CollisionRect = "rect"
	CollisionMask = "mask"
)

// Storage kinds.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Config holds all configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Field      FieldConfig      `yaml:"field"`
	Bird       BirdConfig       `yaml:"bird"`
	Pipes      PipesConfig      `yaml:"pipes"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Population PopulationConfig `yaml:"population"`
	Fitness    FitnessConfig    `yaml:"fitness"`
	Neural     NeuralConfig     `yaml:"neural"`
	NEAT       NEATConfig       `yaml:"neat"`
	Training   TrainingConfig   `yaml:"training"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Storage    StorageConfig    `yaml:"storage"`
	Audio      AudioConfig      `yaml:"audio"`
	Stream     StreamConfig     `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds window settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// FieldConfig holds the playable area. Height is the floor line.
type FieldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// BirdConfig holds agent geometry.
type BirdConfig struct {
	StartX    float64 `yaml:"start_x"`
	StartY    float64 `yaml:"start_y"`
	Width     float64 `yaml:"width"`  // sprite width, used for the pass threshold
	Height    float64 `yaml:"height"` // sprite height, max height = field height - this
	Diameter  float64 `yaml:"diameter"`
	Collision string  `yaml:"collision"` // rect | mask
}

// PipesConfig holds track generation parameters.
type PipesConfig struct {
	Width         float64 `yaml:"width"`
	Distance      float64 `yaml:"distance"`       // free space between consecutive pipes
	SpacingFactor float64 `yaml:"spacing_factor"` // spawn spacing = ceil((distance + width) * factor)
	Count         int     `yaml:"count"`
	Velocity      float64 `yaml:"velocity"`     // horizontal scroll per tick
	GapFraction   float64 `yaml:"gap_fraction"` // gap = floor(field height * this)
	OffsetMin     float64 `yaml:"offset_min"`
	OffsetMax     float64 `yaml:"offset_max"`
}

// PhysicsConfig holds per-tick kinematics.
type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity"`
	FlapVelocity float64 `yaml:"flap_velocity"`
}

// PopulationConfig holds population settings.
type PopulationConfig struct {
	Size int `yaml:"size"`
}

// FitnessConfig shapes the fitness assigned after each episode.
type FitnessConfig struct {
	TickReward       float64 `yaml:"tick_reward"`
	PipeReward       float64 `yaml:"pipe_reward"`
	CompletionBonus  float64 `yaml:"completion_bonus"`
	CollisionPenalty float64 `yaml:"collision_penalty"`
	FloorPenalty     float64 `yaml:"floor_penalty"`
	CeilingPenalty   float64 `yaml:"ceiling_penalty"`
}

// NeuralConfig holds brain network settings.
type NeuralConfig struct {
	FlapThreshold         float64 `yaml:"flap_threshold"`
	InitialConnectionProb float64 `yaml:"initial_connection_prob"`
	InitialWeightRange    float64 `yaml:"initial_weight_range"`
	MaxWeight             float64 `yaml:"max_weight"`
}

// NEATConfig holds evolution parameters passed into neat.Options.
type NEATConfig struct {
	WeightMutPower         float64 `yaml:"weight_mut_power"`
	MutateLinkWeightsProb  float64 `yaml:"mutate_link_weights_prob"`
	MutateAddNodeProb      float64 `yaml:"mutate_add_node_prob"`
	MutateAddLinkProb      float64 `yaml:"mutate_add_link_prob"`
	MutateToggleEnableProb float64 `yaml:"mutate_toggle_enable_prob"`
	MutateOnlyProb         float64 `yaml:"mutate_only_prob"`
	MateOnlyProb           float64 `yaml:"mate_only_prob"`
	InterspeciesMateRate   float64 `yaml:"interspecies_mate_rate"`
	CompatThreshold        float64 `yaml:"compat_threshold"`
	DisjointCoeff          float64 `yaml:"disjoint_coeff"`
	ExcessCoeff            float64 `yaml:"excess_coeff"`
	MutdiffCoeff           float64 `yaml:"mutdiff_coeff"`
	DropOffAge             int     `yaml:"drop_off_age"`
	SurvivalThresh         float64 `yaml:"survival_thresh"`
	Elitism                int     `yaml:"elitism"`             // champions copied unchanged per species
	ElitismMinSpecies      int     `yaml:"elitism_min_species"` // species size needed for elitism
}

// TrainingConfig holds the generation loop settings.
type TrainingConfig struct {
	Generations      int     `yaml:"generations"`
	FitnessThreshold float64 `yaml:"fitness_threshold"` // 0 disables
	StopOnWinner     bool    `yaml:"stop_on_winner"`
	CheckpointEvery  int     `yaml:"checkpoint_every"` // 0 disables
	MaxTicks         int     `yaml:"max_ticks"`        // 0 = no cap
	ReplayEpisodes   int     `yaml:"replay_episodes"`
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	PerfCollectorWindow int  `yaml:"perf_collector_window"`
	WritePerf           bool `yaml:"write_perf"`
}

// StorageConfig selects the run history backend.
type StorageConfig struct {
	Kind string `yaml:"kind"` // memory | sqlite
	Path string `yaml:"path"`
}

// AudioConfig holds sound cue settings.
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
}

// StreamConfig holds the spectator websocket settings.
type StreamConfig struct {
	Addr          string  `yaml:"addr"` // empty disables
	SendBuffer    int     `yaml:"send_buffer"`
	WriteTimeoutS float64 `yaml:"write_timeout_s"`
	EveryNTicks   int     `yaml:"every_n_ticks"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Spacing   float64 // ceil((Pipes.Distance + Pipes.Width) * Pipes.SpacingFactor)
	MaxHeight float64 // Field.Height - Bird.Height
	Gap       float64 // floor(Field.Height * Pipes.GapFraction)
}

// Load loads configuration from the embedded defaults, then overlays the YAML
// file at path if provided. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	cfg.computeDerived()
	return cfg, nil
}

// MustDefault is Default for tests and tools; it panics on a broken embed.
func MustDefault() *Config {
	cfg, err := Default()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) computeDerived() {
	c.Derived.Spacing = math.Ceil((c.Pipes.Distance + c.Pipes.Width) * c.Pipes.SpacingFactor)
	c.Derived.MaxHeight = c.Field.Height - c.Bird.Height
	c.Derived.Gap = math.Floor(c.Field.Height * c.Pipes.GapFraction)
}

// Recompute refreshes derived values after fields were changed in code.
func (c *Config) Recompute() { c.computeDerived() }

// Validate rejects malformed settings. Nothing is clamped.
func (c *Config) Validate() error {
	geom := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", sim.ErrInvalidGeometry, fmt.Sprintf(format, args...))
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Field.Width <= 0 || c.Field.Height <= 0:
		return geom("field %vx%v must be positive", c.Field.Width, c.Field.Height)
	case c.Pipes.Width <= 0:
		return geom("pipes.width %v must be positive", c.Pipes.Width)
	case c.Pipes.Distance < 0:
		return geom("pipes.distance %v must not be negative", c.Pipes.Distance)
	case c.Pipes.SpacingFactor <= 0:
		return geom("pipes.spacing_factor %v must be positive", c.Pipes.SpacingFactor)
	case c.Derived.Spacing < c.Pipes.Width:
		return geom("spawn spacing %v is smaller than pipe width %v", c.Derived.Spacing, c.Pipes.Width)
	case c.Pipes.Count <= 0:
		return geom("pipes.count %d must be positive", c.Pipes.Count)
	case c.Pipes.Velocity <= 0:
		return geom("pipes.velocity %v must be positive", c.Pipes.Velocity)
	case c.Pipes.GapFraction <= 0 || c.Derived.Gap <= 0:
		return geom("pipes.gap_fraction %v gives a non-positive gap", c.Pipes.GapFraction)
	case c.Pipes.OffsetMin <= 0 || c.Pipes.OffsetMax >= 1 || c.Pipes.OffsetMin > c.Pipes.OffsetMax:
		return geom("pipe offsets [%v, %v] must lie in (0, 1)", c.Pipes.OffsetMin, c.Pipes.OffsetMax)
	case c.Pipes.OffsetMax+c.Pipes.GapFraction >= 1:
		return geom("offset_max %v plus gap_fraction %v leaves no bottom pipe", c.Pipes.OffsetMax, c.Pipes.GapFraction)
	case c.Derived.MaxHeight <= 0:
		return geom("max height %v must be positive", c.Derived.MaxHeight)
	case c.Bird.Width < 0 || c.Bird.Diameter < 0:
		return geom("bird size must not be negative")
	case c.Bird.StartY < 0 || c.Bird.StartY > c.Derived.MaxHeight:
		return geom("bird.start_y %v outside [0, %v]", c.Bird.StartY, c.Derived.MaxHeight)
	case math.Ceil(c.Field.Height*c.Pipes.OffsetMax)+c.Derived.Gap >= c.Field.Height:
		return geom("offset_max %v plus gap %v rounds to an empty bottom pipe", c.Pipes.OffsetMax, c.Derived.Gap)
	case c.Derived.Spacing > c.Field.Width-(c.Bird.StartX-c.Pipes.Width-c.Bird.Width/2):
		return geom("spawn spacing %v exceeds the distance from field edge to pass threshold", c.Derived.Spacing)
	}

	switch {
	case c.Bird.Collision != CollisionRect && c.Bird.Collision != CollisionMask:
		return invalid("bird.collision %q must be %q or %q", c.Bird.Collision, CollisionRect, CollisionMask)
	case c.Population.Size <= 0:
		return invalid("population.size %d must be positive", c.Population.Size)
	case c.Neural.FlapThreshold <= 0 || c.Neural.FlapThreshold >= 1:
		return invalid("neural.flap_threshold %v must lie in (0, 1)", c.Neural.FlapThreshold)
	case c.NEAT.CompatThreshold <= 0:
		return invalid("neat.compat_threshold %v must be positive", c.NEAT.CompatThreshold)
	case c.NEAT.SurvivalThresh <= 0 || c.NEAT.SurvivalThresh > 1:
		return invalid("neat.survival_thresh %v must lie in (0, 1]", c.NEAT.SurvivalThresh)
	case c.Training.Generations <= 0:
		return invalid("training.generations %d must be positive", c.Training.Generations)
	case c.Training.MaxTicks < 0 || c.Training.CheckpointEvery < 0:
		return invalid("training caps must not be negative")
	case c.Storage.Kind != StorageMemory && c.Storage.Kind != StorageSQLite:
		return invalid("storage.kind %q must be %q or %q", c.Storage.Kind, StorageMemory, StorageSQLite)
	case c.Storage.Kind == StorageSQLite && c.Storage.Path == "":
		return invalid("storage.path is required for sqlite")
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

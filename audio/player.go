package audio

import (
	"log/slog"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Player plays cues for agent 0 as snapshots arrive. A player without an
// audio device only counts cues.
type Player struct {
	log      *slog.Logger
	rate     beep.SampleRate
	volume   float64
	detector CueDetector
	enabled  bool
	played   [cueCount]int
}

// NewPlayer opens the speaker when cfg enables audio. Failing to open it is
// not fatal: the player is returned disabled.
func NewPlayer(cfg config.AudioConfig, log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	p := &Player{
		log:    log.With("component", "audio"),
		rate:   beep.SampleRate(cfg.SampleRate),
		volume: cfg.Volume,
	}
	if !cfg.Enabled {
		return p
	}
	if p.rate <= 0 {
		p.rate = 44100
	}
	if err := speaker.Init(p.rate, p.rate.N(time.Second/10)); err != nil {
		p.log.Warn("audio initialization failed, continuing without sound", "error", err)
		return p
	}
	p.enabled = true
	return p
}

// Enabled reports whether cues reach the speaker.
func (p *Player) Enabled() bool { return p.enabled }

// Observe implements sim.Observer.
func (p *Player) Observe(s sim.Snapshot) {
	for _, c := range p.detector.Detect(s) {
		p.played[c]++
		if p.enabled {
			speaker.Play(Sound(c, p.rate, p.volume))
		}
	}
}

// Played returns how many times a cue was triggered.
func (p *Player) Played(c Cue) int {
	if c < 0 || c >= cueCount {
		return 0
	}
	return p.played[c]
}

// Close releases the speaker.
func (p *Player) Close() {
	if p.enabled {
		speaker.Clear()
		speaker.Close()
		p.enabled = false
	}
}

package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates a raw wave, optionally sweeping its frequency.
type oscillator struct {
	freq     float64
	sweep    float64 // Hz per second
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
	rng      *rand.Rand
}

// NewOscillator creates an oscillator that sweeps linearly from freq by
// sweep Hz per second.
func NewOscillator(freq, sweep float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		sweep:    sweep,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
		rng:      rand.New(rand.NewSource(1)),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = o.rng.Float64()*2 - 1
		}
		samples[i][0] = val
		samples[i][1] = val

		t := float64(o.position) / float64(o.rate)
		o.phase += (o.freq + o.sweep*t) / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies a linear attack and release to a stream.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope shapes s over duration with the given attack and release.
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if remaining := e.total - e.position; e.release > 0 && remaining < e.release {
			vol = float64(remaining) / float64(e.release)
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// math.Log2(0) is -Inf, so zero volume is silent.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

const (
	flapDuration  = 70 * time.Millisecond
	scoreNote     = 90 * time.Millisecond
	crashDuration = 250 * time.Millisecond
)

// CreateFlapSound is a short rising chirp.
func CreateFlapSound(rate beep.SampleRate, vol float64) beep.Streamer {
	osc := NewOscillator(600, 6000, flapDuration, WaveSine, rate)
	return newVolume(NewEnvelope(osc, flapDuration, 5*time.Millisecond, 40*time.Millisecond, rate), vol)
}

// CreateScoreSound is a two-note chime.
func CreateScoreSound(rate beep.SampleRate, vol float64) beep.Streamer {
	n1 := NewEnvelope(NewOscillator(987.77, 0, scoreNote, WaveSquare, rate), scoreNote, 2*time.Millisecond, 30*time.Millisecond, rate)
	n2 := NewEnvelope(NewOscillator(1318.51, 0, 2*scoreNote, WaveSquare, rate), 2*scoreNote, 2*time.Millisecond, 120*time.Millisecond, rate)
	return newVolume(beep.Seq(n1, n2), vol*0.5)
}

// CreateCrashSound is a falling buzz over noise.
func CreateCrashSound(rate beep.SampleRate, vol float64) beep.Streamer {
	buzz := NewEnvelope(NewOscillator(180, -400, crashDuration, WaveSaw, rate), crashDuration, 5*time.Millisecond, 150*time.Millisecond, rate)
	noise := NewEnvelope(NewOscillator(0, 0, crashDuration/2, WaveNoise, rate), crashDuration/2, 0, 100*time.Millisecond, rate)
	return newVolume(beep.Mix(newVolume(buzz, 0.7), newVolume(noise, 0.3)), vol)
}

// Sound returns the streamer for a cue.
func Sound(c Cue, rate beep.SampleRate, vol float64) beep.Streamer {
	switch c {
	case CueFlap:
		return CreateFlapSound(rate, vol)
	case CueScore:
		return CreateScoreSound(rate, vol)
	case CueCrash:
		return CreateCrashSound(rate, vol)
	default:
		return nil
	}
}

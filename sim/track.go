package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// TrackParams configures a pipe track.
type TrackParams struct {
	PipeWidth float64
	// Spacing is the scroll distance between two consecutive spawns.
	Spacing  float64
	Velocity mgl64.Vec2
	Count    int

	FieldWidth  float64
	FieldHeight float64

	// GapFraction sizes the opening between pipes as a fraction of FieldHeight.
	GapFraction float64
	// OffsetMin and OffsetMax bound the top pipe height as fractions of FieldHeight.
	OffsetMin float64
	OffsetMax float64

	AgentX     float64
	AgentWidth float64

	// RNG drives the layout. A nil RNG uses a fixed seed.
	RNG *rand.Rand
}

// Validate reports malformed parameters. Values are never clamped.
func (p TrackParams) Validate() error {
	switch {
	case p.PipeWidth <= 0:
		return fmt.Errorf("%w: pipe width %v must be positive", ErrInvalidGeometry, p.PipeWidth)
	case p.Spacing < p.PipeWidth:
		return fmt.Errorf("%w: spacing %v is smaller than pipe width %v", ErrInvalidGeometry, p.Spacing, p.PipeWidth)
	case p.Velocity.X() <= 0:
		return fmt.Errorf("%w: horizontal velocity %v must be positive", ErrInvalidGeometry, p.Velocity.X())
	case p.Count <= 0:
		return fmt.Errorf("%w: pipe count %d must be positive", ErrInvalidGeometry, p.Count)
	case p.FieldWidth <= 0 || p.FieldHeight <= 0:
		return fmt.Errorf("%w: field %vx%v must be positive", ErrInvalidGeometry, p.FieldWidth, p.FieldHeight)
	case p.GapFraction <= 0:
		return fmt.Errorf("%w: gap fraction %v must be positive", ErrInvalidGeometry, p.GapFraction)
	case p.OffsetMin <= 0 || p.OffsetMax < p.OffsetMin:
		return fmt.Errorf("%w: offset range [%v, %v] is empty or non-positive", ErrInvalidGeometry, p.OffsetMin, p.OffsetMax)
	case p.OffsetMax+p.GapFraction >= 1:
		return fmt.Errorf("%w: offset max %v plus gap %v leaves no bottom pipe", ErrInvalidGeometry, p.OffsetMax, p.GapFraction)
	case math.Ceil(p.FieldHeight*p.OffsetMax)+math.Floor(p.FieldHeight*p.GapFraction) >= p.FieldHeight:
		return fmt.Errorf("%w: offset max %v plus gap %v rounds to an empty bottom pipe", ErrInvalidGeometry, p.OffsetMax, p.GapFraction)
	case p.AgentWidth < 0:
		return fmt.Errorf("%w: agent width %v must not be negative", ErrInvalidGeometry, p.AgentWidth)
	case p.Spacing > p.FieldWidth-p.threshold():
		// The next pipe must spawn before the head is passed, or the queue
		// empties mid-track.
		return fmt.Errorf("%w: spacing %v exceeds the %v units from spawn to pass threshold", ErrInvalidGeometry, p.Spacing, p.FieldWidth-p.threshold())
	}
	return nil
}

// threshold is the x at or below which the head pipe counts as passed.
func (p TrackParams) threshold() float64 {
	return p.AgentX - p.PipeWidth - p.AgentWidth/2
}

// Track owns every pipe of one episode and the queue of pipes on screen.
//
// All pipes are generated up front; the queue is filled lazily as the track
// scrolls. The head of the queue is the pipe agents must clear next.
type Track struct {
	params    TrackParams
	rng       *rand.Rand
	gap       float64
	threshold float64

	pipes    []*DualPipe
	queue    []*DualPipe
	next     int
	counter  float64
	complete bool
}

// NewTrack validates params and generates the first layout.
func NewTrack(params TrackParams) (*Track, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	rng := params.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	t := &Track{
		params:    params,
		rng:       rng,
		gap:       math.Floor(params.GapFraction * params.FieldHeight),
		threshold: params.threshold(),
	}
	t.Reset()
	return t, nil
}

// Reset discards every pipe and generates a fresh random layout with the same
// parameters.
func (t *Track) Reset() {
	h := t.params.FieldHeight
	t.pipes = make([]*DualPipe, t.params.Count)
	for i := range t.pipes {
		u := t.params.OffsetMin + t.rng.Float64()*(t.params.OffsetMax-t.params.OffsetMin)
		topHeight := math.Ceil(h * u)
		t.pipes[i] = NewDualPipe(i, t.params.FieldWidth, t.params.PipeWidth, topHeight, t.gap, h)
	}

	t.queue = append(t.queue[:0], t.pipes[0])
	t.next = 1
	t.counter = t.params.Spacing
	t.complete = t.next == len(t.pipes)
}

// Step advances the track by one tick and reports whether the head pipe was
// passed. At most one pipe is spawned and at most one pipe is retired per tick.
func (t *Track) Step() bool {
	for _, p := range t.queue {
		p.Translate(t.params.Velocity)
	}

	t.counter -= t.params.Velocity.X()
	if t.counter <= 0 && !t.complete {
		t.queue = append(t.queue, t.pipes[t.next])
		t.next++
		t.complete = t.next == len(t.pipes)
		t.counter = t.params.Spacing
	}

	if len(t.queue) > 0 && t.queue[0].X() <= t.threshold {
		t.queue[0] = nil
		t.queue = t.queue[1:]
		return true
	}
	return false
}

// Head returns the pipe agents must clear next, or nil when every pipe has
// been passed.
func (t *Track) Head() *DualPipe {
	if len(t.queue) == 0 {
		return nil
	}
	return t.queue[0]
}

// Active returns the pipes currently on screen in ascending index order.
// The slice must not be modified.
func (t *Track) Active() []*DualPipe { return t.queue }

// Pipes returns the full layout of the episode.
func (t *Track) Pipes() []*DualPipe { return t.pipes }

// Complete reports whether every pipe has been enqueued.
func (t *Track) Complete() bool { return t.complete }

// Spawned returns how many pipes have entered the queue so far.
func (t *Track) Spawned() int { return t.next }

// Count returns the number of pipes in the episode.
func (t *Track) Count() int { return len(t.pipes) }

// Gap returns the fixed opening shared by every pipe on the track.
func (t *Track) Gap() float64 { return t.gap }

// Threshold is the x coordinate the head pipe must reach to count as passed.
func (t *Track) Threshold() float64 { return t.threshold }

// Params returns the parameters the track was built with.
func (t *Track) Params() TrackParams { return t.params }

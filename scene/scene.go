// Package scene mirrors simulation snapshots into an ECS world that
// renderers query. The scene is owned by the goroutine that draws.
package scene

import (
	"sort"

	"github.com/mlange-42/ark/ecs"

	"github.com/KevinHern/flappy-bird-ai/components"
	"github.com/KevinHern/flappy-bird-ai/sim"
	"github.com/KevinHern/flappy-bird-ai/systems"
)

// HUD holds the text overlay values of the latest snapshot.
type HUD struct {
	Episode     int
	Tick        int
	Alive       int
	Population  int
	BestPipes   int
	TotalPipes  int
	FieldWidth  float64
	FieldHeight float64
	Done        bool
}

// BirdView is a visible bird ready to draw.
type BirdView struct {
	ID      int
	Rect    sim.Rect
	Frame   int
	Flapped bool
	VY      float64
}

// PipeView is one pipe half ready to draw.
type PipeView struct {
	Index int
	Top   bool
	Rect  sim.Rect
}

type pipeKey struct {
	index int
	top   bool
}

// Scene is an ECS world holding one entity per bird and per pipe half.
type Scene struct {
	world *ecs.World

	birdMap    *ecs.Map3[components.Position, components.Size, components.Bird]
	pipeMap    *ecs.Map3[components.Position, components.Size, components.Pipe]
	birdFilter *ecs.Filter3[components.Position, components.Size, components.Bird]
	pipeFilter *ecs.Filter3[components.Position, components.Size, components.Pipe]

	animation *systems.AnimationSystem

	birds map[int]ecs.Entity
	pipes map[pipeKey]ecs.Entity

	hud     HUD
	started bool

	removeBuf []ecs.Entity
}

// New creates an empty scene.
func New() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:      world,
		birdMap:    ecs.NewMap3[components.Position, components.Size, components.Bird](world),
		pipeMap:    ecs.NewMap3[components.Position, components.Size, components.Pipe](world),
		birdFilter: ecs.NewFilter3[components.Position, components.Size, components.Bird](world),
		pipeFilter: ecs.NewFilter3[components.Position, components.Size, components.Pipe](world),
		animation:  systems.NewAnimationSystem(world),
		birds:      make(map[int]ecs.Entity),
		pipes:      make(map[pipeKey]ecs.Entity),
	}
}

// Sync updates the world to match s and advances the animation by the ticks
// elapsed since the previous snapshot. A new episode rebuilds the world.
func (sc *Scene) Sync(s sim.Snapshot) {
	elapsed := s.Tick - sc.hud.Tick
	if !sc.started || s.Episode != sc.hud.Episode || elapsed < 0 {
		sc.clear()
		elapsed = s.Tick
		sc.started = true
	}

	sc.syncBirds(s.Agents)
	sc.syncPipes(s.Pipes)
	sc.animation.Update(elapsed)

	sc.hud = HUD{
		Episode:     s.Episode,
		Tick:        s.Tick,
		Alive:       s.Alive,
		Population:  len(s.Agents),
		BestPipes:   s.BestPipes(),
		TotalPipes:  s.TotalPipes,
		FieldWidth:  s.FieldWidth,
		FieldHeight: s.FieldHeight,
		Done:        s.Done,
	}
}

func (sc *Scene) syncBirds(agents []sim.AgentState) {
	for _, a := range agents {
		pos := components.Position{X: a.X - a.Radius, Y: a.Y - a.Radius}
		size := components.Size{W: 2 * a.Radius, H: 2 * a.Radius}

		e, ok := sc.birds[a.ID]
		if !ok {
			bird := components.Bird{ID: a.ID}
			e = sc.birdMap.NewEntity(&pos, &size, &bird)
			sc.birds[a.ID] = e
		}
		p, sz, bird := sc.birdMap.Get(e)
		*p, *sz = pos, size
		bird.Alive = !a.Terminal
		bird.Flapped = a.Flapped
		bird.Reason = a.Reason
		bird.PipesPassed = a.PipesPassed
		bird.Score = a.Score
		bird.VY = a.VY
	}
}

func (sc *Scene) syncPipes(pipes []sim.PipeState) {
	seen := make(map[pipeKey]bool, 2*len(pipes))
	for _, p := range pipes {
		for _, half := range []struct {
			top  bool
			rect sim.Rect
		}{{true, p.Top}, {false, p.Bottom}} {
			key := pipeKey{index: p.Index, top: half.top}
			seen[key] = true
			pos := components.Position{X: half.rect.X, Y: half.rect.Y}
			size := components.Size{W: half.rect.W, H: half.rect.H}

			if e, ok := sc.pipes[key]; ok {
				ep, es, _ := sc.pipeMap.Get(e)
				*ep, *es = pos, size
				continue
			}
			pipe := components.Pipe{Index: p.Index, Top: half.top}
			sc.pipes[key] = sc.pipeMap.NewEntity(&pos, &size, &pipe)
		}
	}

	// Entities cannot be removed while a query is open.
	sc.removeBuf = sc.removeBuf[:0]
	for key, e := range sc.pipes {
		if !seen[key] {
			sc.removeBuf = append(sc.removeBuf, e)
			delete(sc.pipes, key)
		}
	}
	for _, e := range sc.removeBuf {
		sc.world.RemoveEntity(e)
	}
}

func (sc *Scene) clear() {
	sc.removeBuf = sc.removeBuf[:0]
	for id, e := range sc.birds {
		sc.removeBuf = append(sc.removeBuf, e)
		delete(sc.birds, id)
	}
	for key, e := range sc.pipes {
		sc.removeBuf = append(sc.removeBuf, e)
		delete(sc.pipes, key)
	}
	for _, e := range sc.removeBuf {
		sc.world.RemoveEntity(e)
	}
}

// Birds returns the live birds ordered by ID. Dead birds are hidden.
func (sc *Scene) Birds() []BirdView {
	var out []BirdView
	query := sc.birdFilter.Query()
	for query.Next() {
		pos, size, bird := query.Get()
		if !bird.Alive {
			continue
		}
		out = append(out, BirdView{
			ID:      bird.ID,
			Rect:    components.Rect(pos, size),
			Frame:   bird.Frame,
			Flapped: bird.Flapped,
			VY:      bird.VY,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Pipes returns the pipe halves on screen ordered by index, top half first.
func (sc *Scene) Pipes() []PipeView {
	var out []PipeView
	query := sc.pipeFilter.Query()
	for query.Next() {
		pos, size, pipe := query.Get()
		out = append(out, PipeView{Index: pipe.Index, Top: pipe.Top, Rect: components.Rect(pos, size)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Top && !out[j].Top
	})
	return out
}

// HUD returns the overlay values of the latest snapshot.
func (sc *Scene) HUD() HUD { return sc.hud }

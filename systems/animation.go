// Package systems contains ECS systems for the scene.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/KevinHern/flappy-bird-ai/components"
)

// AnimationPeriod is the length of one wing cycle in ticks.
const AnimationPeriod = 20

// AnimationFrame maps a position in the wing cycle to a sprite index:
// wings up, level, down, level.
func AnimationFrame(counter int) int {
	switch {
	case counter <= 5:
		return 0
	case counter <= 10:
		return 1
	case counter <= 15:
		return 2
	default:
		return 1
	}
}

// AnimationSystem advances the wing cycle of live birds once per tick. Dead
// birds keep their last frame.
type AnimationSystem struct {
	filter ecs.Filter1[components.Bird]
}

// NewAnimationSystem creates a new animation system.
func NewAnimationSystem(w *ecs.World) *AnimationSystem {
	return &AnimationSystem{
		filter: *ecs.NewFilter1[components.Bird](w),
	}
}

// Update advances every live bird by ticks steps.
func (s *AnimationSystem) Update(ticks int) {
	if ticks <= 0 {
		return
	}
	query := s.filter.Query()
	for query.Next() {
		bird := query.Get()
		if !bird.Alive {
			continue
		}
		bird.Counter = (bird.Counter + ticks) % AnimationPeriod
		bird.Frame = AnimationFrame(bird.Counter)
	}
}

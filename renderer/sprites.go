package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/KevinHern/flappy-bird-ai/scene"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

var (
	pipeBody    = rl.NewColor(115, 191, 46, 255)
	pipeShade   = rl.NewColor(84, 140, 34, 255)
	pipeOutline = rl.NewColor(84, 56, 71, 255)
	birdBody    = rl.NewColor(250, 200, 40, 255)
	birdWing    = rl.NewColor(250, 240, 200, 255)
	birdBeak    = rl.NewColor(240, 110, 40, 255)
)

// Wing vertical offsets as a fraction of the bird radius, by animation frame.
var wingLift = [...]float32{0.35, 0, -0.35}

func rect(r sim.Rect) rl.Rectangle {
	return rl.Rectangle{X: float32(r.X), Y: float32(r.Y), Width: float32(r.W), Height: float32(r.H)}
}

// drawPipe draws one pipe half with its cap at the gap edge.
func drawPipe(p scene.PipeView, r sim.Rect) {
	rec := rect(r)
	rl.DrawRectangleRec(rec, pipeBody)
	rl.DrawRectangleRec(rl.Rectangle{X: rec.X + rec.Width*0.7, Y: rec.Y, Width: rec.Width * 0.15, Height: rec.Height}, pipeShade)
	rl.DrawRectangleLinesEx(rec, 2, pipeOutline)

	capH := float32(r.W) * 0.35
	if capH > rec.Height {
		capH = rec.Height
	}
	capRec := rl.Rectangle{X: rec.X - 4, Y: rec.Y + rec.Height - capH, Width: rec.Width + 8, Height: capH}
	if !p.Top {
		capRec.Y = rec.Y
	}
	rl.DrawRectangleRec(capRec, pipeBody)
	rl.DrawRectangleLinesEx(capRec, 2, pipeOutline)
}

// drawBird draws a bird inside r with the wing position of its animation
// frame, tilted toward its vertical velocity.
func drawBird(b scene.BirdView, r sim.Rect) {
	cx := float32(r.X + r.W/2)
	cy := float32(r.Y + r.H/2)
	radius := float32(r.W / 2)

	rl.DrawCircleV(rl.Vector2{X: cx, Y: cy}, radius, birdBody)
	rl.DrawCircleLinesV(rl.Vector2{X: cx, Y: cy}, radius, pipeOutline)

	lift := wingLift[b.Frame%len(wingLift)] * radius
	rl.DrawEllipse(int32(cx-radius*0.35), int32(cy+lift), radius*0.5, radius*0.28, birdWing)

	tilt := float32(b.VY) * 0.02 * radius
	if tilt > radius*0.3 {
		tilt = radius * 0.3
	} else if tilt < -radius*0.3 {
		tilt = -radius * 0.3
	}
	rl.DrawTriangle(
		rl.Vector2{X: cx + radius*0.6, Y: cy - radius*0.2 + tilt},
		rl.Vector2{X: cx + radius*0.6, Y: cy + radius*0.2 + tilt},
		rl.Vector2{X: cx + radius*1.2, Y: cy + tilt},
		birdBeak,
	)
	rl.DrawCircleV(rl.Vector2{X: cx + radius*0.35, Y: cy - radius*0.35}, radius*0.15, rl.White)
	rl.DrawCircleV(rl.Vector2{X: cx + radius*0.4, Y: cy - radius*0.35}, radius*0.07, rl.Black)
}

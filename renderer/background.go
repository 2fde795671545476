package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/KevinHern/flappy-bird-ai/sim"
)

// BackgroundRenderer paints the sky behind the field and the ground strip
// below it.
type BackgroundRenderer struct {
	Sky     rl.Color
	Horizon rl.Color
	Ground  rl.Color
	Grass   rl.Color
	Stripe  rl.Color

	// FloorVelocity is how far the ground scrolls per tick in field units.
	FloorVelocity float64
	StripeWidth   float64
}

// NewBackgroundRenderer creates a background in the original day palette.
func NewBackgroundRenderer() *BackgroundRenderer {
	return &BackgroundRenderer{
		Sky:     rl.NewColor(78, 192, 202, 255),
		Horizon: rl.NewColor(222, 247, 216, 255),
		Ground:  rl.NewColor(222, 216, 149, 255),
		Grass:   rl.NewColor(115, 191, 46, 255),
		Stripe:  rl.NewColor(155, 227, 89, 255),

		FloorVelocity: 5,
		StripeWidth:   24,
	}
}

// Draw fills field with the sky gradient and everything below it down to
// screenH with ground. The grass stripes scroll with the tick; scale converts
// field units to pixels.
func (b *BackgroundRenderer) Draw(field sim.Rect, screenH int32, tick int, scale float64) {
	x, y := int32(field.X), int32(field.Y)
	w, h := int32(field.W), int32(field.H)

	rl.DrawRectangleGradientV(x, y, w, h, b.Sky, b.Horizon)

	groundY := y + h
	if groundY >= screenH {
		return
	}
	rl.DrawRectangle(x, groundY, w, 12, b.Grass)
	rl.DrawRectangle(x, groundY+12, w, screenH-groundY-12, b.Ground)

	stripe := b.StripeWidth * scale
	if stripe <= 0 {
		return
	}
	offset := math.Mod(float64(tick)*b.FloorVelocity*scale, 2*stripe)
	rl.BeginScissorMode(x, groundY, w, 12)
	for sx := field.X - offset; sx < field.Right(); sx += 2 * stripe {
		rl.DrawRectangle(int32(sx), groundY, int32(stripe), 12, b.Stripe)
	}
	rl.EndScissorMode()
}

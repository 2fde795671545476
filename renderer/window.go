// Package renderer draws the simulation in a raylib window and turns key and
// mouse presses into flap requests.
package renderer

import (
	"context"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/KevinHern/flappy-bird-ai/camera"
	"github.com/KevinHern/flappy-bird-ai/scene"
	"github.com/KevinHern/flappy-bird-ai/ui"
)

// Options configures a Window.
type Options struct {
	Width, Height int
	TargetFPS     int
	Title         string
	Mode          string
	// OnFlap is called for every flap press. Nil disables flap input.
	OnFlap func()
}

// Window owns the raylib window. It must be created and run on the main
// goroutine.
type Window struct {
	feed       *scene.Feed
	scene      *scene.Scene
	cam        *camera.Camera
	background *BackgroundRenderer
	hud        *ui.HUD
	opts       Options
}

// NewWindow opens the window.
func NewWindow(feed *scene.Feed, opts Options) *Window {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	rl.SetTargetFPS(int32(opts.TargetFPS))

	return &Window{
		feed:       feed,
		scene:      scene.New(),
		cam:        camera.New(float64(opts.Width), float64(opts.Height), 1, 1),
		background: NewBackgroundRenderer(),
		hud:        ui.NewHUD(),
		opts:       opts,
	}
}

// Close closes the window.
func (w *Window) Close() {
	rl.CloseWindow()
}

// Run draws frames until the window is closed or ctx is done. Closing the
// window returns nil; the caller turns it into an abort of the simulation.
func (w *Window) Run(ctx context.Context) error {
	for !rl.WindowShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.drain()
		w.handleInput()
		w.draw()
	}
	return nil
}

// drain syncs the scene with every pending snapshot.
func (w *Window) drain() {
	for {
		select {
		case s := <-w.feed.C():
			w.scene.Sync(s)
			w.cam.SetWorld(s.FieldWidth, s.FieldHeight)
		default:
			return
		}
	}
}

func (w *Window) handleInput() {
	if rl.IsWindowResized() {
		w.cam.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
	}
	if w.opts.OnFlap == nil {
		return
	}
	if rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyUp) || rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		w.opts.OnFlap()
	}
}

func (w *Window) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	hud := w.scene.HUD()
	screenH := int32(rl.GetScreenHeight())
	if hud.FieldWidth > 0 {
		field := w.cam.Field()
		w.background.Draw(field, screenH, hud.Tick, w.cam.ScaleX)

		rl.BeginScissorMode(int32(field.X), int32(field.Y), int32(field.W), int32(field.H))
		for _, p := range w.scene.Pipes() {
			drawPipe(p, w.cam.RectToScreen(p.Rect))
		}
		for _, b := range w.scene.Birds() {
			drawBird(b, w.cam.RectToScreen(b.Rect))
		}
		rl.EndScissorMode()
	}

	w.hud.Draw(ui.HUDData{Title: w.opts.Title, Mode: w.opts.Mode, Scene: hud, FPS: rl.GetFPS()})
	w.hud.DrawControls(screenH, ui.Controls(w.opts.Mode))

	rl.EndDrawing()
}

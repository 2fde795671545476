// Package tui draws the simulation in a terminal with tcell and turns key
// presses into flap requests.
package tui

import (
	"context"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/KevinHern/flappy-bird-ai/camera"
	"github.com/KevinHern/flappy-bird-ai/scene"
	"github.com/KevinHern/flappy-bird-ai/sim"
	"github.com/KevinHern/flappy-bird-ai/ui"
)

// CellAspect is the height of a terminal cell relative to its width.
const CellAspect = 2.0

// Wing glyphs indexed by animation frame.
var birdGlyphs = [...]rune{'v', '-', '^'}

var (
	styleField = tcell.StyleDefault.Background(tcell.ColorNavy)
	stylePipe  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorNavy)
	styleBird  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy).Bold(true)
	styleHUD   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHelp  = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Options configures a Terminal.
type Options struct {
	Title string
	Mode  string
	// OnFlap is called for every flap key press. Nil disables flap input.
	OnFlap func()
}

// Terminal renders snapshots from a feed onto a tcell screen.
type Terminal struct {
	screen tcell.Screen
	feed   *scene.Feed
	scene  *scene.Scene
	cam    *camera.Camera
	opts   Options
}

// Open creates and initializes the terminal screen. Callers must Fini it.
func Open() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}

// New creates a terminal frontend on an initialized screen.
func New(screen tcell.Screen, feed *scene.Feed, opts Options) *Terminal {
	w, h := screen.Size()
	return &Terminal{
		screen: screen,
		feed:   feed,
		scene:  scene.New(),
		cam:    camera.NewWithAspect(float64(w), float64(h), 1, 1, CellAspect),
		opts:   opts,
	}
}

// Run draws until the user quits or ctx is done. Quitting returns nil; the
// caller turns it into an abort of the simulation.
func (t *Terminal) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	t.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !t.handleEvent(ev) {
				return nil
			}
		case s := <-t.feed.C():
			t.sync(s)
			t.draw()
		}
	}
}

// handleEvent reacts to one event and reports whether to keep running.
func (t *Terminal) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			t.flap()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ', 'w', 'k':
				t.flap()
			}
		}

	case *tcell.EventResize:
		w, h := t.screen.Size()
		t.cam.Resize(float64(w), float64(h))
		t.screen.Sync()
		t.draw()
	}
	return true
}

func (t *Terminal) flap() {
	if t.opts.OnFlap != nil {
		t.opts.OnFlap()
	}
}

func (t *Terminal) sync(s sim.Snapshot) {
	t.scene.Sync(s)
	t.cam.SetWorld(s.FieldWidth, s.FieldHeight)
}

func (t *Terminal) draw() {
	t.screen.Clear()

	hud := t.scene.HUD()
	if hud.FieldWidth > 0 {
		t.fill(t.cam.Field(), ' ', styleField)
		for _, p := range t.scene.Pipes() {
			t.fill(t.cam.RectToScreen(p.Rect), '█', stylePipe)
		}
		for _, b := range t.scene.Birds() {
			glyph := birdGlyphs[b.Frame%len(birdGlyphs)]
			t.fill(t.cam.RectToScreen(b.Rect), glyph, styleBird)
		}
	}

	for i, line := range ui.Lines(ui.HUDData{Title: t.opts.Title, Mode: t.opts.Mode, Scene: hud}) {
		t.text(0, i, line, styleHUD)
	}
	_, h := t.screen.Size()
	t.text(0, h-1, ui.Controls(t.opts.Mode), styleHelp)

	t.screen.Show()
}

// fill paints every cell a screen rectangle touches, clipped to the field
// and the screen. Any visible rectangle covers at least one cell.
func (t *Terminal) fill(r sim.Rect, ch rune, style tcell.Style) {
	field := t.cam.Field()
	w, h := t.screen.Size()

	x0 := int(math.Floor(math.Max(r.X, field.X)))
	y0 := int(math.Floor(math.Max(r.Y, field.Y)))
	x1 := int(math.Ceil(math.Min(r.Right(), field.Right())))
	y1 := int(math.Ceil(math.Min(r.Bottom(), field.Bottom())))
	if x1 <= x0 && r.Right() > field.X && r.X < field.Right() {
		x1 = x0 + 1
	}
	if y1 <= y0 && r.Bottom() > field.Y && r.Y < field.Bottom() {
		y1 = y0 + 1
	}

	for y := max(y0, 0); y < min(y1, h); y++ {
		for x := max(x0, 0); x < min(x1, w); x++ {
			t.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func (t *Terminal) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

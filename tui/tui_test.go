package tui

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/KevinHern/flappy-bird-ai/scene"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

func newTestTerminal(t *testing.T, opts Options) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(100, 35)
	return New(screen, scene.NewFeed(4), opts), screen
}

func testSnapshot() sim.Snapshot {
	return sim.Snapshot{
		Episode:     1,
		Tick:        1,
		FieldWidth:  500,
		FieldHeight: 700,
		TotalPipes:  20,
		Alive:       1,
		Pipes: []sim.PipeState{{
			Index:  0,
			Top:    sim.Rect{X: 300, Y: 0, W: 104, H: 200},
			Bottom: sim.Rect{X: 300, Y: 418, W: 104, H: 282},
		}},
		Agents: []sim.AgentState{{ID: 0, X: 125, Y: 300, Radius: 24}},
	}
}

func cellAt(t *testing.T, screen tcell.SimulationScreen, x, y int) rune {
	t.Helper()
	cells, w, _ := screen.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func TestDraw(t *testing.T) {
	term, screen := newTestTerminal(t, Options{Title: "Flappy Bird", Mode: "play"})
	term.sync(testSnapshot())
	term.draw()

	// 100x35 cells at aspect 2 fit the 500x700 field as 50x35 cells at x=25.
	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"bird", 37, 15, 'v'},
		{"top pipe", 60, 5, '█'},
		{"bottom pipe", 60, 25, '█'},
		{"gap", 60, 15, ' '},
		{"letterbox", 90, 15, ' '},
		{"hud", 0, 0, 'F'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellAt(t, screen, tt.x, tt.y); got != tt.want {
				t.Errorf("cell (%d,%d) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHandleEvent(t *testing.T) {
	flaps := 0
	term, _ := newTestTerminal(t, Options{OnFlap: func() { flaps++ }})

	tests := []struct {
		name      string
		ev        *tcell.EventKey
		keepGoing bool
		flaps     int
	}{
		{"space flaps", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), true, 1},
		{"up flaps", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), true, 2},
		{"other rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), true, 2},
		{"q quits", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false, 2},
		{"escape quits", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), false, 2},
		{"ctrl-c quits", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := term.handleEvent(tt.ev); got != tt.keepGoing {
				t.Errorf("handleEvent() = %v, want %v", got, tt.keepGoing)
			}
			if flaps != tt.flaps {
				t.Errorf("flaps = %d, want %d", flaps, tt.flaps)
			}
		})
	}
}

func TestRunQuitsOnEscape(t *testing.T) {
	term, screen := newTestTerminal(t, Options{})
	term.feed.Observe(testSnapshot())
	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := term.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Error("Run() returned only after the timeout")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	term, _ := newTestTerminal(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := term.Run(ctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

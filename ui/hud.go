// Package ui formats the heads-up display shared by the window and terminal
// frontends and draws it in the window.
package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/KevinHern/flappy-bird-ai/scene"
)

// HUDData holds all the data needed to render the HUD.
type HUDData struct {
	Title string
	Mode  string
	Scene scene.HUD
	FPS   int32
}

// Lines returns the HUD text, one entry per line.
func Lines(data HUDData) []string {
	h := data.Scene
	lines := []string{data.Title}
	if data.Mode != "" {
		lines[0] = fmt.Sprintf("%s | %s", data.Title, data.Mode)
	}

	switch data.Mode {
	case "train":
		lines = append(lines, fmt.Sprintf("Generation: %d | Alive: %d/%d", h.Episode, h.Alive, h.Population))
	case "replay":
		lines = append(lines, fmt.Sprintf("Episode: %d | Alive: %d/%d", h.Episode, h.Alive, h.Population))
	default:
		lines = append(lines, fmt.Sprintf("Round: %d", h.Episode))
	}

	info := fmt.Sprintf("Score: %d/%d | Tick: %d", h.BestPipes, h.TotalPipes, h.Tick)
	if data.FPS > 0 {
		info += fmt.Sprintf(" | FPS: %d", data.FPS)
	}
	lines = append(lines, info)

	if h.Done {
		lines = append(lines, "Round over")
	}
	return lines
}

// Controls returns the key legend for a mode.
func Controls(mode string) string {
	if mode == "play" {
		return "SPACE/UP: flap | ESC: quit"
	}
	return "ESC: quit"
}

// HUD draws the HUD in the window.
type HUD struct {
	FontSize   int32
	LineHeight int32
}

// NewHUD creates a HUD with the default text metrics.
func NewHUD() *HUD {
	return &HUD{FontSize: 20, LineHeight: 24}
}

// Draw renders the HUD lines in the top-left corner.
func (h *HUD) Draw(data HUDData) {
	lines := Lines(data)
	for i, line := range lines {
		color := rl.White
		if i > 0 {
			color = rl.LightGray
		}
		if data.Scene.Done && i == len(lines)-1 {
			color = rl.Yellow
		}
		rl.DrawText(line, 10, 10+int32(i)*h.LineHeight, h.FontSize, color)
	}
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

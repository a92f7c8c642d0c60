package pulsemon

import (
	"log/slog"

	Pt "github.com/maroda/pulsemon/types"
)

// Renderer is the display boundary.
// RenderValue shows a number on the LED matrix (digits is 2 or 3),
// RenderStatus shows the single character code for a DetectionState.
type Renderer interface {
	RenderValue(value uint8, digits int, ascii, clearAfter bool)
	RenderStatus(state Pt.DetectionState)
}

// Digits is how many characters the matrix needs for v
func Digits(v uint8) int {
	if v >= 100 {
		return 3
	}
	return 2
}

// MultiRenderer sends every call to each Renderer in order
type MultiRenderer []Renderer

func (mr MultiRenderer) RenderValue(value uint8, digits int, ascii, clearAfter bool) {
	for _, r := range mr {
		r.RenderValue(value, digits, ascii, clearAfter)
	}
}

func (mr MultiRenderer) RenderStatus(state Pt.DetectionState) {
	for _, r := range mr {
		r.RenderStatus(state)
	}
}

// LogRenderer stands in for the display on headless runs
type LogRenderer struct {
	Logger *slog.Logger
}

func (lr LogRenderer) logger() *slog.Logger {
	if lr.Logger == nil {
		return slog.Default()
	}
	return lr.Logger
}

func (lr LogRenderer) RenderValue(value uint8, digits int, _, _ bool) {
	lr.logger().Info("BEAT", slog.Int("value", int(value)), slog.Int("digits", digits))
}

func (lr LogRenderer) RenderStatus(state Pt.DetectionState) {
	lr.logger().Info("RATE",
		slog.String("code", string(state.Char())),
		slog.String("status", state.String()))
}

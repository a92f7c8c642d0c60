package pulsemon

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// GetTTY opens and initializes the terminal screen
func GetTTY() (tcell.Screen, error) {
	defStyle := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset)

	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("could not get new screen: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("could not initialize screen: %w", err)
	}
	s.SetStyle(defStyle)
	s.EnableMouse()
	s.EnablePaste()
	s.Clear()

	return s, nil
}

// WriteBar shows a long bar for the amount entered
// x1 = starting X axis (from left), x2 = ending X axis (from left)
// y1 = starting Y axis (from top), y2 = ending Y axis (from top)
func WriteBar(s tcell.Screen, x1, y1, x2, y2 int, style tcell.Style) {
	for row := y1; row < y2; row++ {
		for col := x1; col < x2; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
}

// Matrix font, 3x5 dots per character.
// Digits and the five status codes are all the LED matrix ever shows.
var glyphs = map[rune][5]string{
	'0': {"###", "#.#", "#.#", "#.#", "###"},
	'1': {".#.", "##.", ".#.", ".#.", "###"},
	'2': {"###", "..#", "###", "#..", "###"},
	'3': {"###", "..#", "###", "..#", "###"},
	'4': {"#.#", "#.#", "###", "..#", "..#"},
	'5': {"###", "#..", "###", "..#", "###"},
	'6': {"###", "#..", "###", "#.#", "###"},
	'7': {"###", "..#", ".#.", ".#.", ".#."},
	'8': {"###", "#.#", "###", "#.#", "###"},
	'9': {"###", "#.#", "###", "..#", "###"},
	'N': {"#.#", "###", "###", "###", "#.#"},
	'H': {"#.#", "#.#", "###", "#.#", "#.#"},
	'L': {"#..", "#..", "#..", "#..", "###"},
	'R': {"##.", "#.#", "##.", "#.#", "#.#"},
	'F': {"###", "#..", "##.", "#..", "#.."},
}

const (
	dotWidth   = 2 // terminal cells are tall, two columns make a square dot
	glyphWidth = 3*dotWidth + dotWidth
	glyphRows  = 5
)

// MatrixWidth is how many columns DrawMatrix needs for text
func MatrixWidth(text string) int {
	return len(text) * glyphWidth
}

// DrawMatrix writes text in the dot font with its top left corner at x, y.
// Characters outside the font are left blank.
func DrawMatrix(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range text {
		g, ok := glyphs[r]
		if !ok {
			continue
		}
		left := x + i*glyphWidth
		for row, line := range g {
			for col, dot := range line {
				if dot != '#' {
					continue
				}
				cx := left + col*dotWidth
				WriteBar(s, cx, y+row, cx+dotWidth, y+row+1, style)
			}
		}
	}
}

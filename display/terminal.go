package pulsemon

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	Pm "github.com/maroda/pulsemon/monitor"
	Po "github.com/maroda/pulsemon/obvy"
	Pp "github.com/maroda/pulsemon/plugin"
	Pt "github.com/maroda/pulsemon/types"
)

const (
	matrixX     = 4
	matrixY     = 3
	labelY      = matrixY + glyphRows + 1
	statusY     = labelY + 2
	sparkY      = statusY + 2
	defaultHold = 2 * time.Second
)

// View is the terminal stand-in for the LED matrix and the two buttons.
// It also carries the web server, which works with or without a Screen.
type View struct {
	MU         sync.Mutex        // guards the matrix fields below
	Monitor    *Pm.Monitor       // nil when only following a serial device
	Dash       *Dashboard        // state for the web dashboard
	Archive    Pp.OutputAdapter  // output able to answer QueryRange, may be nil
	Screen     tcell.Screen      // the screen itself, nil for headless runs
	Stats      *Po.StatsInternal // Internal status for prometheus
	server     *http.Server
	Hold       time.Duration // how long a value stays up when clearAfter is set
	Shown      string        // text on the matrix
	ShownState Pt.DetectionState
	IsStatus   bool // Shown is a status code, not a value
	clearAfter bool
	shownAt    time.Time
	drawMU     sync.Mutex // one frame at a time
}

func NewView(m *Pm.Monitor, screen tcell.Screen, stats *Po.StatsInternal) *View {
	if screen != nil {
		defStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
		screen.SetStyle(defStyle)
	}
	v := &View{
		Monitor: m,
		Dash:    NewDashboard(),
		Screen:  screen,
		Stats:   stats,
		Hold:    defaultHold,
	}
	v.UpdateScreen()
	return v
}

// RenderValue puts a number on the matrix.
// A terminal always shows ASCII so that flag is ignored.
func (v *View) RenderValue(value uint8, digits int, _ bool, clearAfter bool) {
	v.MU.Lock()
	v.Shown = fmt.Sprintf("%*d", digits, value)
	v.IsStatus = false
	v.clearAfter = clearAfter
	v.shownAt = time.Now()
	v.MU.Unlock()

	v.UpdateScreen()
}

// RenderStatus shows the status code, it stays up until replaced
func (v *View) RenderStatus(state Pt.DetectionState) {
	v.MU.Lock()
	v.Shown = string(state.Char())
	v.ShownState = state
	v.IsStatus = true
	v.clearAfter = false
	v.shownAt = time.Now()
	v.MU.Unlock()

	v.UpdateScreen()
}

// Matrix is what the LED matrix shows right now
func (v *View) Matrix() string {
	v.MU.Lock()
	defer v.MU.Unlock()
	return v.matrixLocked(time.Now())
}

func (v *View) matrixLocked(now time.Time) string {
	if v.clearAfter && now.Sub(v.shownAt) > v.Hold {
		return ""
	}
	return v.Shown
}

func stateStyle(st Pt.DetectionState) tcell.Style {
	if st == Pt.Normal {
		return tcell.StyleDefault.Background(tcell.ColorGreen)
	}
	return tcell.StyleDefault.Background(tcell.ColorRed)
}

// Sparkline maps values onto eight bar heights across 30..220 BPM,
// keeping the newest width values
func Sparkline(values []uint8, width int) []rune {
	bars := []rune("▁▂▃▄▅▆▇█")
	if width <= 0 {
		return nil
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	out := make([]rune, len(values))
	for i, val := range values {
		level := (int(val) - 30) * len(bars) / (220 - 30)
		out[i] = bars[min(max(level, 0), len(bars)-1)]
	}
	return out
}

func (v *View) DrawSparkline(x, y int, values []uint8, width int) {
	for i, r := range Sparkline(values, width) {
		var style tcell.Style
		switch r {
		case '▁', '▂':
			style = tcell.StyleDefault.Foreground(tcell.ColorSeaGreen)
		case '▃', '▄':
			style = tcell.StyleDefault.Foreground(tcell.ColorMediumSeaGreen)
		case '▅', '▆':
			style = tcell.StyleDefault.Foreground(tcell.ColorDarkTurquoise)
		default:
			style = tcell.StyleDefault.Foreground(tcell.ColorAquaMarine)
		}
		v.Screen.SetContent(x+i, y, r, nil, style)
	}
}

func (v *View) DrawText(x1, y1, x2, y2 int, text string) {
	row := y1
	col := x1
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

func (v *View) DrawViewBorder(width, height int) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)
	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)
}

// DrawMonitorView lays out the matrix, the mode and state line, and the history
func (v *View) DrawMonitorView(snap Pm.Snapshot) {
	width, height := v.GetScreenSize()
	v.DrawViewBorder(width-2, height-1)

	v.MU.Lock()
	shown := v.matrixLocked(time.Now())
	isStatus := v.IsStatus
	shownState := v.ShownState
	v.MU.Unlock()

	style := tcell.StyleDefault.Background(tcell.ColorWhite)
	label := ""
	if isStatus {
		style = stateStyle(shownState)
		label = shownState.String()
	} else if shown != "" {
		label = shown + " BPM"
	}
	DrawMatrix(v.Screen, matrixX, matrixY, shown, style)
	v.DrawText(matrixX, labelY, width-2, labelY, label)

	if v.Monitor != nil {
		v.DrawText(matrixX, statusY, width-2, statusY,
			fmt.Sprintf("Mode: %-9s State: %s", snap.Mode, snap.State))
		v.DrawSparkline(matrixX, sparkY, snap.History, width-2*matrixX)
		if snap.Len > 0 {
			v.DrawText(matrixX, sparkY+1, width-2, sparkY+1,
				fmt.Sprintf("latest %d  samples %d", snap.Latest, snap.Len))
		}
		v.DrawText(2, 1, width-2, 1, "session "+snap.Session)
	}

	v.DrawText(1, height-1, width, height+10, "/m/ mode | /q/ query | /d/ dump | /ESC/ to quit")
	v.DrawText(width-10, height-1, width, height+10, "PULSEMON")
}

// HandleKey acts on one key press, it returns true when the view should quit
func (v *View) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyCtrlL:
		v.ResizeScreen()
		return false
	}

	if v.Monitor != nil {
		switch ev.Rune() {
		case 'm', '1':
			v.Monitor.Button1()
		case 'q', '2':
			v.Monitor.Button2()
		case 'd':
			v.Monitor.Dump()
		}
	}
	v.UpdateScreen()
	return false
}

func (v *View) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

func (v *View) ResizeScreen() {
	v.Screen.Sync()
	v.UpdateScreen()
}

// UpdateScreen redraws everything, the monitor is read before any view lock is taken
func (v *View) UpdateScreen() {
	if v.Screen == nil {
		return
	}
	var snap Pm.Snapshot
	if v.Monitor != nil {
		snap = v.Monitor.Snapshot()
	}
	v.drawMU.Lock()
	defer v.drawMU.Unlock()
	v.Screen.Clear()
	v.DrawMonitorView(snap)
	v.Screen.Show()
}

// Run handles keys until ESC or Ctrl-C, redrawing once a second in between.
// The screen is finalized on return.
func (v *View) Run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in run loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
		}
	}()
	defer v.Screen.Fini()

	slog.Info("Starting terminal view")
	var wg sync.WaitGroup
	done := make(chan struct{})
	defer wg.Wait()
	defer close(done)

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				v.UpdateScreen()
			case <-done:
				return
			}
		}
	}()

	for {
		ev := v.Screen.PollEvent()
		switch ev := ev.(type) {
		case nil:
			return
		case *tcell.EventResize:
			v.ResizeScreen()
		case *tcell.EventKey:
			if v.HandleKey(ev) {
				return
			}
		}
	}
}

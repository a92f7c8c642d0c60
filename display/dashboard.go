package pulsemon

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	Pm "github.com/maroda/pulsemon/monitor"
	Pt "github.com/maroda/pulsemon/types"
)

// HistorySize is how many BEAT values the dashboard keeps
const HistorySize = 16

var ErrMalformedLine = errors.New("malformed protocol line")

var statusAction = map[Pt.DetectionState]string{
	Pt.Normal:         "You're good!",
	Pt.RateHigh:       "Call 911!",
	Pt.RateLow:        "Call 911!",
	Pt.RisingRapidly:  "Take it easy ...",
	Pt.FallingRapidly: "Take it easy ...",
}

// action text color, badge class
func statusColor(st Pt.DetectionState) (string, string) {
	if st == Pt.Normal {
		return "green", "success"
	}
	return "red", "danger"
}

// DashState is what the web dashboard renders
type DashState struct {
	Mode        string `json:"mode"` // digit, as sent on the MODE line
	ModeName    string `json:"mode_name"`
	Data        []int  `json:"data"` // oldest first
	Latest      int    `json:"latest"`
	Status      string `json:"status"`
	Code        string `json:"code"`
	Action      string `json:"action"`
	ActionColor string `json:"action_color"`
	BadgeColor  string `json:"badge_color"`
	Updates     uint64 `json:"updates"`
}

// Dashboard follows the serial line protocol and keeps the latest state.
// It is an io.Writer so a SerialOutput can feed it directly.
type Dashboard struct {
	MU      sync.RWMutex
	Mode    string
	History *Pm.Ring
	State   Pt.DetectionState
	Updates uint64 // bumped on every accepted line
	partial []byte
}

func NewDashboard() *Dashboard {
	return &Dashboard{
		Mode:    "0",
		History: Pm.NewRing(HistorySize),
		State:   Pt.Normal,
	}
}

// HandleLine applies one protocol line. Unknown prefixes are ignored.
func (d *Dashboard) HandleLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 4 {
		return nil
	}

	switch line[:4] {
	case "MODE":
		if len(line) < 6 {
			return fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		d.MU.Lock()
		d.Mode = line[5:6]
		d.Updates++
		d.MU.Unlock()

	case "BEAT":
		if len(line) < 6 {
			return fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		n, err := strconv.Atoi(strings.TrimSpace(line[5:]))
		if err != nil || n < 0 || n > 255 {
			return fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		d.MU.Lock()
		d.History.Push(uint8(n))
		d.Updates++
		d.MU.Unlock()

	case "RATE":
		code := strings.TrimSpace(line[4:])
		if len(code) != 1 {
			return fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		st, ok := Pt.StateFromChar(code[0])
		if !ok {
			return fmt.Errorf("%w: unknown status %q", ErrMalformedLine, code)
		}
		d.MU.Lock()
		d.State = st
		d.Updates++
		d.MU.Unlock()

	default:
		slog.Debug("Dashboard skipped line", slog.String("line", line))
	}
	return nil
}

// Write splits p into lines, a trailing partial line waits for the next call.
// Bad lines are logged and skipped so the stream keeps flowing.
func (d *Dashboard) Write(p []byte) (int, error) {
	d.MU.Lock()
	buf := append(d.partial, p...)
	var lines []string
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(buf[:i]))
		buf = buf[i+1:]
	}
	d.partial = append([]byte(nil), buf...)
	d.MU.Unlock()

	for _, line := range lines {
		if err := d.HandleLine(line); err != nil {
			slog.Warn("Dashboard rejected line", slog.Any("error", err))
		}
	}
	return len(p), nil
}

// Feed reads lines from r until EOF or ctx is done
func (d *Dashboard) Feed(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.HandleLine(scanner.Text()); err != nil {
			slog.Warn("Dashboard rejected line", slog.Any("error", err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("dashboard feed: %w", err)
	}
	return nil
}

func (d *Dashboard) Snapshot() DashState {
	d.MU.RLock()
	defer d.MU.RUnlock()

	vals := d.History.Values()
	data := make([]int, len(vals))
	for i, v := range vals {
		data[i] = int(v)
	}
	latest, _ := d.History.Latest()

	modeName := "unknown"
	if n, err := strconv.Atoi(d.Mode); err == nil {
		modeName = Pt.MonitoringMode(n).String()
	}

	actionColor, badgeColor := statusColor(d.State)
	return DashState{
		Mode:        d.Mode,
		ModeName:    modeName,
		Data:        data,
		Latest:      int(latest),
		Status:      d.State.String(),
		Code:        string(d.State.Char()),
		Action:      statusAction[d.State],
		ActionColor: actionColor,
		BadgeColor:  badgeColor,
		Updates:     d.Updates,
	}
}

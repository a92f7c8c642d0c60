package types

/*

	These are the "immutable" core types of pulsemon,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no constructors defined here.
	Struct constructors are housed in their own packages.

*/

import "time"

// DetectionState is the alert classification of recent heart rate history.
// Exactly one is active at a time.
type DetectionState int

const (
	Normal DetectionState = iota
	RateHigh
	RateLow
	RisingRapidly
	FallingRapidly
)

// statusChars are the single character codes shown on the LED matrix
// and sent over the serial line as "RATE <c>"
var statusChars = [...]byte{'N', 'H', 'L', 'R', 'F'}

var statusNames = [...]string{"Normal", "HIGH", "LOW", "Rising Rapidly", "Falling Rapidly"}

// Char returns the status code character, '?' for anything unknown
func (d DetectionState) Char() byte {
	if d < 0 || int(d) >= len(statusChars) {
		return '?'
	}
	return statusChars[d]
}

func (d DetectionState) String() string {
	if d < 0 || int(d) >= len(statusNames) {
		return "Unknown"
	}
	return statusNames[d]
}

// StateFromChar is the reverse of Char
func StateFromChar(c byte) (DetectionState, bool) {
	for i, sc := range statusChars {
		if sc == c {
			return DetectionState(i), true
		}
	}
	return Normal, false
}

// MonitoringMode governs what the periodic cycle renders.
// Sampling and history recording happen in every mode.
type MonitoringMode int

const (
	Periodic MonitoringMode = iota // render the latest value every tick
	Query                          // render only on demand
	Detect                         // classify history and render the status
)

const numModes = 3

// Next is the whole mode state machine: Periodic → Query → Detect → Periodic
func (m MonitoringMode) Next() MonitoringMode {
	return (m + 1) % numModes
}

func (m MonitoringMode) String() string {
	switch m {
	case Periodic:
		return "periodic"
	case Query:
		return "query"
	case Detect:
		return "detect"
	default:
		return "unknown"
	}
}

// Curve is the expansion family used to synthesize a simulated trajectory
type Curve int

const (
	CurveNone Curve = iota
	CurveLinear
	CurveQuadratic
	CurveExponential
)

// NumCurves is used for uniform random selection
const NumCurves = 4

func (c Curve) String() string {
	switch c {
	case CurveNone:
		return "none"
	case CurveLinear:
		return "linear"
	case CurveQuadratic:
		return "quadratic"
	case CurveExponential:
		return "exponential"
	default:
		return "unknown"
	}
}

// Direction of a simulated trajectory
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Reading is emitted by the monitor once per tick, and once per mode change.
// Output adapters, the serial line protocol, and the dashboard all consume it.
type Reading struct {
	Session     string         // monitor session ID
	Seq         uint64         // monotonically increasing per session
	Value       uint8          // heart rate pushed to history this tick
	Mode        MonitoringMode // mode at the time of the reading
	State       DetectionState // detection state after this tick
	Classified  bool           // State was recomputed this tick
	ModeChanged bool           // this reading marks a mode switch, not a tick
	Timestamp   time.Time
}

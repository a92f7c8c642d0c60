package pulsemon

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	Pt "github.com/maroda/pulsemon/types"
)

// SimConfig bounds the synthetic heartbeat trajectories
type SimConfig struct {
	MinHB      float64   `json:"min_hb"`
	MaxHB      float64   `json:"max_hb"`
	MinChange  int       `json:"min_change"`  // smallest linear step
	MaxChange  int       `json:"max_change"`  // largest linear step
	MaxSeconds int       `json:"max_seconds"` // curve durations are drawn from [0, MaxSeconds)
	ATerms     []float64 `json:"a_terms"`     // coefficients for quadratic and exponential curves
	Start      uint8     `json:"start"`
	Seed       uint64    `json:"seed"` // 0 seeds from the clock
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		MinHB:      40,
		MaxHB:      210,
		MinChange:  0,
		MaxChange:  30,
		MaxSeconds: 30,
		ATerms:     []float64{0.05, 0.10, 0.15},
		Start:      80,
	}
}

// SimState is everything that changes while simulating
type SimState struct {
	Value     float64
	Direction Pt.Direction
	Curve     Pt.Curve
	Delta     float64 // linear step, fixed for the life of the curve
	X         float64 // next input for quadratic/exponential curves
	A         float64 // coefficient for quadratic/exponential curves
	Duration  int     // seconds to hold the current settings
	Elapsed   int     // seconds spent under the current settings
}

// Simulator synthesizes plausible heartbeats by hopping between
// randomly chosen expansion curves
type Simulator struct {
	Config SimConfig
	State  SimState
	rng    *rand.Rand
}

func NewSimulator(cfg SimConfig) *Simulator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if len(cfg.ATerms) == 0 {
		cfg.ATerms = DefaultSimConfig().ATerms
	}

	s := &Simulator{
		Config: cfg,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	s.State.Value = Clamp(float64(cfg.Start), cfg.MinHB, cfg.MaxHB)
	s.Switch()
	return s
}

func (s *Simulator) Setup() error {
	slog.Info("Simulator ready",
		slog.Float64("start", s.State.Value),
		slog.String("curve", s.State.Curve.String()),
		slog.String("direction", s.State.Direction.String()),
		slog.Int("seconds", s.State.Duration))
	return nil
}

func (s *Simulator) Teardown() error { return nil }

func (s *Simulator) Type() string { return "simulator" }

// NextSample is called once per second.
// Settings are re-randomized on the tick after their duration runs out.
func (s *Simulator) NextSample() uint8 {
	if s.State.Elapsed >= s.State.Duration {
		s.Switch()
	}

	v, x := s.expand()
	s.State.Value = v
	s.State.X = x
	s.State.Elapsed++

	return uint8(math.Round(v))
}

// Switch draws new direction, curve, coefficient, and duration.
// Quadratic and exponential inputs are seeded by inverting the curve
// at the current value so the trajectory stays continuous.
func (s *Simulator) Switch() {
	st := &s.State
	st.Direction = Pt.Direction(s.rng.IntN(2))
	st.Curve = Pt.Curve(s.rng.IntN(Pt.NumCurves))
	st.Duration = s.rng.IntN(max(s.Config.MaxSeconds, 1))
	st.Elapsed = 0

	base := math.Max(st.Value, s.Config.MinHB)

	switch st.Curve {
	case Pt.CurveLinear:
		span := max(s.Config.MaxChange-s.Config.MinChange, 0)
		st.Delta = float64(s.Config.MinChange + s.rng.IntN(span+1))
	case Pt.CurveQuadratic:
		st.A = s.Config.ATerms[s.rng.IntN(len(s.Config.ATerms))]
		st.X = math.Sqrt(base / st.A)
	case Pt.CurveExponential:
		st.A = s.Config.ATerms[s.rng.IntN(len(s.Config.ATerms))]
		st.X = math.Log2(base / st.A)
	}

	slog.Debug("Simulator switch",
		slog.String("curve", st.Curve.String()),
		slog.String("direction", st.Direction.String()),
		slog.Float64("delta", st.Delta),
		slog.Float64("a", st.A),
		slog.Float64("x", st.X),
		slog.Int("seconds", st.Duration))
}

func (s *Simulator) expand() (float64, float64) {
	lo, hi := s.Config.MinHB, s.Config.MaxHB
	switch s.State.Curve {
	case Pt.CurveLinear:
		return ExpandLinear(s.State, lo, hi)
	case Pt.CurveQuadratic:
		return ExpandQuadratic(s.State, lo, hi)
	case Pt.CurveExponential:
		return ExpandExponential(s.State, lo, hi)
	default:
		return ExpandNone(s.State, lo, hi)
	}
}

// ExpandNone holds the current value
func ExpandNone(st SimState, _, _ float64) (float64, float64) {
	return st.Value, st.X
}

// ExpandLinear moves the value by Delta in the current direction
func ExpandLinear(st SimState, lo, hi float64) (float64, float64) {
	next := st.Value + st.Delta
	if st.Direction == Pt.Down {
		next = st.Value - st.Delta
	}
	return Clamp(next, lo, hi), st.X
}

// ExpandQuadratic evaluates a·x², the input only steps while the clamp is not binding
func ExpandQuadratic(st SimState, lo, hi float64) (float64, float64) {
	return stepCurve(st, st.A*st.X*st.X, lo, hi)
}

// ExpandExponential evaluates a·2^x, the input only steps while the clamp is not binding
func ExpandExponential(st SimState, lo, hi float64) (float64, float64) {
	return stepCurve(st, st.A*math.Exp2(st.X), lo, hi)
}

func stepCurve(st SimState, expansion, lo, hi float64) (float64, float64) {
	next := Clamp(expansion, lo, hi)
	if next != expansion {
		return next, st.X
	}
	if st.Direction == Pt.Down {
		return next, st.X - 1
	}
	return next, st.X + 1
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

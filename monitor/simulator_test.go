package pulsemon

import (
	"math"
	"testing"

	Pt "github.com/maroda/pulsemon/types"
)

func TestExpandLinear(t *testing.T) {
	t.Run("Clamps at MaxHB", func(t *testing.T) {
		st := SimState{Value: 200, Delta: 30, Direction: Pt.Up}
		v, _ := ExpandLinear(st, 40, 210)
		assertFloat(t, v, 210)
	})

	t.Run("Clamps at MinHB", func(t *testing.T) {
		st := SimState{Value: 50, Delta: 30, Direction: Pt.Down}
		v, _ := ExpandLinear(st, 40, 210)
		assertFloat(t, v, 40)
	})

	t.Run("Steps by Delta", func(t *testing.T) {
		st := SimState{Value: 80, Delta: 7, Direction: Pt.Up}
		v, _ := ExpandLinear(st, 40, 210)
		assertFloat(t, v, 87)
	})
}

func TestExpandCurves(t *testing.T) {
	t.Run("Quadratic steps the input while unclamped", func(t *testing.T) {
		st := SimState{A: 0.05, X: 40, Direction: Pt.Up}
		v, x := ExpandQuadratic(st, 40, 210)
		assertFloat(t, v, 80)
		assertFloat(t, x, 41)

		st.Direction = Pt.Down
		_, x = ExpandQuadratic(st, 40, 210)
		assertFloat(t, x, 39)
	})

	t.Run("Quadratic holds the input when clamped", func(t *testing.T) {
		st := SimState{A: 0.05, X: 100, Direction: Pt.Up}
		v, x := ExpandQuadratic(st, 40, 210)
		assertFloat(t, v, 210)
		assertFloat(t, x, 100)
	})

	t.Run("Exponential steps the input while unclamped", func(t *testing.T) {
		st := SimState{A: 0.10, X: 10, Direction: Pt.Up}
		v, x := ExpandExponential(st, 40, 210)
		assertFloat(t, v, 102.4)
		assertFloat(t, x, 11)
	})

	t.Run("Exponential holds the input when clamped", func(t *testing.T) {
		st := SimState{A: 0.10, X: 2, Direction: Pt.Down}
		v, x := ExpandExponential(st, 40, 210)
		assertFloat(t, v, 40)
		assertFloat(t, x, 2)
	})

	t.Run("None holds the value", func(t *testing.T) {
		st := SimState{Value: 77, X: 3}
		v, x := ExpandNone(st, 40, 210)
		assertFloat(t, v, 77)
		assertFloat(t, x, 3)
	})
}

func TestSimulator_Switch(t *testing.T) {
	cfg := DefaultSimConfig()
	cfg.Seed = 42
	sim := NewSimulator(cfg)

	for range 200 {
		sim.Switch()
		st := sim.State
		if st.Duration < 0 || st.Duration >= cfg.MaxSeconds {
			t.Fatalf("duration out of range: %d", st.Duration)
		}
		assertInt(t, st.Elapsed, 0)

		switch st.Curve {
		case Pt.CurveLinear:
			if st.Delta < 0 || st.Delta > float64(cfg.MaxChange) {
				t.Fatalf("delta out of range: %f", st.Delta)
			}
		case Pt.CurveQuadratic:
			// continuous with the current value
			assertFloat(t, st.A*st.X*st.X, math.Max(st.Value, cfg.MinHB))
		case Pt.CurveExponential:
			assertFloat(t, st.A*math.Exp2(st.X), math.Max(st.Value, cfg.MinHB))
		}
	}
}

func TestSimulator_NextSample(t *testing.T) {
	t.Run("Stays within bounds", func(t *testing.T) {
		cfg := DefaultSimConfig()
		cfg.Seed = 7
		sim := NewSimulator(cfg)
		for range 2000 {
			v := sim.NextSample()
			if float64(v) < cfg.MinHB || float64(v) > cfg.MaxHB {
				t.Fatalf("sample %d outside [%v, %v]", v, cfg.MinHB, cfg.MaxHB)
			}
		}
	})

	t.Run("Same seed gives the same sequence", func(t *testing.T) {
		cfg := DefaultSimConfig()
		cfg.Seed = 1234
		a := NewSimulator(cfg)
		b := NewSimulator(cfg)
		for i := range 500 {
			va, vb := a.NextSample(), b.NextSample()
			if va != vb {
				t.Fatalf("sample %d differs: %d != %d", i, va, vb)
			}
		}
	})

	t.Run("Switches once the duration runs out", func(t *testing.T) {
		cfg := DefaultSimConfig()
		cfg.Seed = 99
		sim := NewSimulator(cfg)
		sim.State.Duration = 2
		sim.State.Elapsed = 0
		sim.State.Curve = Pt.CurveNone

		sim.NextSample()
		sim.NextSample()
		assertInt(t, sim.State.Elapsed, 2)

		sim.NextSample()
		// fresh settings, one second in
		assertInt(t, sim.State.Elapsed, 1)
	})

	t.Run("Start value is clamped", func(t *testing.T) {
		cfg := DefaultSimConfig()
		cfg.Seed = 3
		cfg.Start = 250
		sim := NewSimulator(cfg)
		if sim.State.Value > cfg.MaxHB {
			t.Errorf("start %f above MaxHB", sim.State.Value)
		}
	})
}

func TestSimulator_Backend(t *testing.T) {
	var b Backend = NewSimulator(DefaultSimConfig())
	assertString(t, b.Type(), "simulator")
	if err := b.Setup(); err != nil {
		t.Errorf("Setup() = %v", err)
	}
	if err := b.Teardown(); err != nil {
		t.Errorf("Teardown() = %v", err)
	}
}

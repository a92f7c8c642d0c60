package pulsemon

import (
	"testing"

	Pt "github.com/maroda/pulsemon/types"
)

func TestAverage(t *testing.T) {
	assertFloat(t, Average(nil), 0)
	assertFloat(t, Average([]uint8{72, 74, 76}), 74)

	t.Run("Constant window averages to itself", func(t *testing.T) {
		assertFloat(t, Average([]uint8{90, 90, 90, 90, 90}), 90)
	})

	t.Run("Does not overflow on high values", func(t *testing.T) {
		assertFloat(t, Average([]uint8{255, 255, 255, 255, 255}), 255)
	})
}

func TestSlope(t *testing.T) {
	tests := []struct {
		name   string
		window []uint8
		want   float64
	}{
		{"empty", nil, 0},
		{"single point", []uint8{80}, 0},
		{"flat", []uint8{80, 80, 80, 80, 80}, 0},
		{"rising by 2", []uint8{60, 62, 64, 66, 68}, 2},
		{"falling by 20", []uint8{160, 140, 120, 100, 80}, -20},
		{"two points", []uint8{70, 90}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFloat(t, Slope(tt.window), tt.want)
		})
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		window []uint8
		want   Pt.DetectionState
	}{
		{"normal", []uint8{70, 72, 71, 73, 72}, Pt.Normal},
		{"high", []uint8{205, 205, 205, 205, 205}, Pt.RateHigh},
		{"high at the threshold", []uint8{200, 200, 200, 200, 200}, Pt.RateHigh},
		{"low", []uint8{40, 40, 40, 40, 40}, Pt.RateLow},
		{"rising rapidly", []uint8{80, 100, 120, 140, 160}, Pt.RisingRapidly},
		{"falling rapidly", []uint8{160, 140, 120, 100, 80}, Pt.FallingRapidly},
		{"high wins over rising", []uint8{180, 190, 200, 215, 240}, Pt.RateHigh},
		{"low wins over falling", []uint8{80, 50, 30, 20, 10}, Pt.RateLow},
		{"reduced window", []uint8{70, 100}, Pt.RisingRapidly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.window, th)
			if !ok {
				t.Fatalf("Classify reported insufficient data")
			}
			if got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.window, got, tt.want)
			}
		})
	}

	t.Run("Empty window is insufficient data", func(t *testing.T) {
		_, ok := Classify(nil, th)
		if ok {
			t.Errorf("Classify(nil) should not be ok")
		}
	})

	t.Run("Custom thresholds", func(t *testing.T) {
		custom := Thresholds{High: 120, Low: 50, RapidRate: 5}
		got, _ := Classify([]uint8{120, 121, 122}, custom)
		if got != Pt.RateHigh {
			t.Errorf("got %s, want HIGH", got)
		}
		got, _ = Classify([]uint8{60, 66, 72}, custom)
		if got != Pt.RisingRapidly {
			t.Errorf("got %s, want Rising Rapidly", got)
		}
	})
}

package pulsemon

import (
	Pt "github.com/maroda/pulsemon/types"
)

// RecentWindow is how many history entries feed classification
const RecentWindow = 5

// Thresholds for classifying the recent window.
// The average is checked against High/Low, the slope against ±RapidRate.
type Thresholds struct {
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	RapidRate float64 `json:"rapid_rate"` // units per sample
}

// DefaultThresholds match the wearable's factory settings
func DefaultThresholds() Thresholds {
	return Thresholds{
		High:      200,
		Low:       40,
		RapidRate: 16.0,
	}
}

// Average is the arithmetic mean of the window, 0 when empty
func Average(window []uint8) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum uint32
	for _, v := range window {
		sum += uint32(v)
	}
	return float64(sum) / float64(len(window))
}

// Slope is the least-squares regression slope of the window,
// with x = 0..n-1 in chronological order and y the sample values.
// Windows with fewer than two points have no slope and return 0.
func Slope(window []uint8) float64 {
	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range window {
		x := float64(i)
		y := float64(v)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func (th Thresholds) IsHigh(window []uint8) bool {
	return Average(window) >= th.High
}

func (th Thresholds) IsLow(window []uint8) bool {
	return Average(window) <= th.Low
}

func (th Thresholds) IsRisingRapidly(window []uint8) bool {
	return Slope(window) >= th.RapidRate
}

func (th Thresholds) IsFallingRapidly(window []uint8) bool {
	return Slope(window) <= -th.RapidRate
}

// Classify recomputes the detection state from scratch.
// First match wins: High, Low, RisingRapidly, FallingRapidly, else Normal.
// An empty window is insufficient data, ok is false and the
// caller should keep whatever state it had.
func Classify(window []uint8, th Thresholds) (state Pt.DetectionState, ok bool) {
	if len(window) == 0 {
		return Pt.Normal, false
	}

	switch {
	case th.IsHigh(window):
		return Pt.RateHigh, true
	case th.IsLow(window):
		return Pt.RateLow, true
	case th.IsRisingRapidly(window):
		return Pt.RisingRapidly, true
	case th.IsFallingRapidly(window):
		return Pt.FallingRapidly, true
	default:
		return Pt.Normal, true
	}
}

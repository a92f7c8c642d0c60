package transport

import (
	"math"
	"sync"
)

// Synth is a synthetic PPG source standing in for the sensor bus.
// Reflected intensity sits on a slowly breathing baseline and dips once per beat.
type Synth struct {
	MU        sync.Mutex
	Fs        float64 // samples per second, matches the sensor sampling rate
	BPM       float64
	Baseline  float64
	Amplitude float64 // depth of the systolic dip
	Noise     float64
	phase     float64
	t         float64
}

func NewSynth(fs, bpm float64) *Synth {
	return &Synth{
		Fs:        fs,
		BPM:       bpm,
		Baseline:  100000,
		Amplitude: 4000,
		Noise:     50,
	}
}

// Init always succeeds, there is no part to identify
func (s *Synth) Init() (bool, error) { return true, nil }

// ReadFIFO advances one sample period
func (s *Synth) ReadFIFO() (uint32, error) {
	s.MU.Lock()
	defer s.MU.Unlock()

	s.phase += (s.BPM / 60.0) / s.Fs
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}
	s.t += 1 / s.Fs

	// breathing around 0.25 Hz
	baseline := s.Baseline + 0.02*s.Baseline*math.Sin(2*math.Pi*0.25*s.t)
	// systolic dip then a smaller dicrotic notch
	dip := s.Amplitude*gauss(s.phase, 0.15, 0.04) + 0.3*s.Amplitude*gauss(s.phase, 0.45, 0.05)
	n := s.Noise * (2*fract(math.Sin(12345.678*s.t)*9876.543) - 1)

	v := baseline - dip + n
	if v < 0 {
		v = 0
	}
	// 18-bit ADC
	return min(uint32(v), 1<<18-1), nil
}

// SetBPM changes the synthetic rate on the fly
func (s *Synth) SetBPM(bpm float64) {
	s.MU.Lock()
	defer s.MU.Unlock()
	s.BPM = bpm
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }

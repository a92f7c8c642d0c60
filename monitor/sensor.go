package pulsemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SensorConfig tunes the heartbeat detection pipeline
type SensorConfig struct {
	SamplingRate  float64 `json:"sampling_rate"`  // raw samples per second
	BeatThreshold float64 `json:"beat_threshold"` // filtered residual that flags a candidate beat
	LowBPM        float64 `json:"low_bpm"`        // candidates below this are implausible
	HighBPM       float64 `json:"high_bpm"`       // candidates above this are implausible
}

func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		SamplingRate:  400,
		BeatThreshold: 500,
		LowBPM:        40,
		HighBPM:       200,
	}
}

// SensorState is mutated on every raw sample
type SensorState struct {
	Filter           RunningAverage
	SamplesSinceBeat uint32
	HeartRate        uint8 // last accepted heart rate
}

// Sensor reads a pulse oximeter through a Transport on its own fast ticker
// and surfaces the last confirmed heart rate on NextSample.
type Sensor struct {
	MU        sync.Mutex // guards State between the sampler and NextSample
	Config    SensorConfig
	State     SensorState
	Transport Transport
	OnBeat    func(bpm float64, accepted bool) // optional, called outside the lock
	Ticker    *time.Ticker
	StopChan  chan struct{}
	WG        sync.WaitGroup
}

func NewSensor(cfg SensorConfig, t Transport) *Sensor {
	return &Sensor{
		Config:    cfg,
		Transport: t,
	}
}

func (s *Sensor) Type() string { return "sensor" }

// Setup verifies the device identity and starts sampling.
// Any error here means the monitor cannot run.
func (s *Sensor) Setup() error {
	if s.StopChan != nil {
		return nil
	}

	ok, err := s.Transport.Init()
	if err != nil {
		slog.Error("Sensor init failed", slog.Any("error", err))
		return fmt.Errorf("sensor init: %w", err)
	}
	if !ok {
		slog.Error("Sensor part ID does not match")
		return ErrIdentity
	}

	s.start()
	slog.Info("Sensor sampling", slog.Float64("hz", s.Config.SamplingRate))
	return nil
}

func (s *Sensor) start() {
	period := time.Duration(float64(time.Second) / s.Config.SamplingRate)
	s.StopChan = make(chan struct{})
	s.Ticker = time.NewTicker(period)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		defer s.Ticker.Stop()

		for {
			select {
			case <-s.Ticker.C:
				s.sample()
			case <-s.StopChan:
				return
			}
		}
	}()
}

// Teardown stops the sampler
func (s *Sensor) Teardown() error {
	if s.StopChan != nil {
		close(s.StopChan)
		s.WG.Wait()
		s.StopChan = nil
	}
	return nil
}

func (s *Sensor) sample() {
	raw, err := s.Transport.ReadFIFO()
	if err != nil {
		slog.Debug("FIFO read failed", slog.Any("error", err))
		return
	}
	s.Process(float64(raw))
}

// Process runs one raw sample through the detection pipeline.
// A candidate beat outside [LowBPM, HighBPM] is dropped without
// touching the sample counter; only an accepted beat resets it.
func (s *Sensor) Process(raw float64) (bpm float64, candidate, accepted bool) {
	s.MU.Lock()
	filtered := s.State.Filter.Filter(raw)
	s.State.SamplesSinceBeat++

	if filtered >= s.Config.BeatThreshold {
		candidate = true
		bpm = (s.Config.SamplingRate * 60) / float64(s.State.SamplesSinceBeat)
		if bpm >= s.Config.LowBPM && bpm <= s.Config.HighBPM {
			accepted = true
			s.State.HeartRate = uint8(bpm)
			s.State.SamplesSinceBeat = 0
		}
	}
	s.MU.Unlock()

	if candidate && s.OnBeat != nil {
		s.OnBeat(bpm, accepted)
	}
	return bpm, candidate, accepted
}

// NextSample is the last confirmed heart rate.
// It repeats the same value until a new beat is accepted.
func (s *Sensor) NextSample() uint8 {
	s.MU.Lock()
	defer s.MU.Unlock()
	return s.State.HeartRate
}

package pulsemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	Po "github.com/maroda/pulsemon/obvy"
	Pp "github.com/maroda/pulsemon/plugin"
	Pt "github.com/maroda/pulsemon/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrNotQueryMode = errors.New("monitor is not in query mode")

// Monitor is the periodic sampling cycle.
// It owns the history, the current mode and detection state, and one Backend.
type Monitor struct {
	MU         sync.Mutex // guards History, Mode, State, Backend sampling
	Session    string
	History    *Ring
	Mode       Pt.MonitoringMode
	State      Pt.DetectionState
	Backend    Backend
	Thresholds Thresholds
	Renderer   Renderer
	Outputs    []Pp.OutputAdapter
	Stats      *Po.StatsInternal
	seq        uint64
	tracer     trace.Tracer
}

// NewMonitor starts in Periodic mode with a Normal state and an empty history
func NewMonitor(b Backend, r Renderer, th Thresholds) *Monitor {
	if r == nil {
		r = LogRenderer{}
	}
	return &Monitor{
		Session:    uuid.NewString(),
		History:    NewRing(DefaultRingSize),
		Mode:       Pt.Periodic,
		State:      Pt.Normal,
		Backend:    b,
		Thresholds: th,
		Renderer:   r,
		tracer:     otel.Tracer("pulsemon/monitor"),
	}
}

// AddOutput registers an adapter to receive every Reading
func (m *Monitor) AddOutput(o Pp.OutputAdapter) {
	m.MU.Lock()
	defer m.MU.Unlock()
	m.Outputs = append(m.Outputs, o)
}

// Start runs Backend.Setup, failure here is fatal to the caller
func (m *Monitor) Start() error {
	if err := m.Backend.Setup(); err != nil {
		return err
	}
	slog.Info("Monitor started",
		slog.String("session", m.Session),
		slog.String("backend", m.Backend.Type()))
	return nil
}

// Tick is one cycle: sample, record, branch on mode.
// Rendering and outputs happen after the lock is released.
func (m *Monitor) Tick() {
	_, span := m.tracer.Start(context.Background(), "monitor.tick")
	defer span.End()
	start := time.Now()

	m.MU.Lock()
	value := m.Backend.NextSample()
	m.History.Push(value)

	mode := m.Mode
	classified := false
	if mode == Pt.Detect {
		window, _ := m.History.LastN(RecentWindow)
		if st, ok := Classify(window, m.Thresholds); ok {
			m.State = st
			classified = true
		}
	}
	state := m.State
	reading := m.reading(value, mode, state)
	reading.Classified = classified
	outputs := m.Outputs
	m.MU.Unlock()

	switch mode {
	case Pt.Periodic:
		m.Renderer.RenderValue(value, Digits(value), true, true)
	case Pt.Detect:
		if classified {
			m.Renderer.RenderStatus(state)
		}
	}

	m.emit(outputs, reading)

	span.SetAttributes(
		attribute.Int("value", int(value)),
		attribute.String("mode", mode.String()),
		attribute.String("state", state.String()),
	)
	m.Stats.RecTick(time.Since(start).Seconds(), value, int(state), int(mode))
}

// SwitchMode advances Periodic -> Query -> Detect -> Periodic
func (m *Monitor) SwitchMode() Pt.MonitoringMode {
	m.MU.Lock()
	m.Mode = m.Mode.Next()
	mode := m.Mode
	latest, _ := m.History.Latest()
	reading := m.reading(latest, mode, m.State)
	reading.ModeChanged = true
	outputs := m.Outputs
	m.MU.Unlock()

	slog.Info("Mode changed", slog.String("mode", mode.String()))
	m.emit(outputs, reading)
	m.Stats.RecModeChange(int(mode))
	return mode
}

// Query returns the most recent sample, only available in Query mode
func (m *Monitor) Query() (uint8, error) {
	m.MU.Lock()
	defer m.MU.Unlock()
	if m.Mode != Pt.Query {
		return 0, ErrNotQueryMode
	}
	return m.History.Latest()
}

// Button1 is the mode toggle
func (m *Monitor) Button1() {
	m.SwitchMode()
}

// Button2 shows the latest value on demand when in Query mode
func (m *Monitor) Button2() {
	v, err := m.Query()
	if err != nil {
		slog.Debug("Query ignored", slog.Any("error", err))
		return
	}
	m.Renderer.RenderValue(v, Digits(v), true, true)
}

// Snapshot is a consistent copy of the monitor's observable state
type Snapshot struct {
	Session string
	Mode    Pt.MonitoringMode
	State   Pt.DetectionState
	History []uint8
	Latest  uint8
	Len     int
}

func (m *Monitor) Snapshot() Snapshot {
	m.MU.Lock()
	defer m.MU.Unlock()
	latest, _ := m.History.Latest()
	return Snapshot{
		Session: m.Session,
		Mode:    m.Mode,
		State:   m.State,
		History: m.History.Values(),
		Latest:  latest,
		Len:     m.History.Len(),
	}
}

// Dump logs the full history in chronological order
func (m *Monitor) Dump() {
	m.MU.Lock()
	dump := m.History.String()
	m.MU.Unlock()
	slog.Info(dump)
}

// OutputTypes names each registered output in order
func (m *Monitor) OutputTypes() []string {
	m.MU.Lock()
	defer m.MU.Unlock()
	types := make([]string, 0, len(m.Outputs))
	for _, o := range m.Outputs {
		types = append(types, o.Type())
	}
	return types
}

// FlushOutputs pushes anything buffered by the outputs
func (m *Monitor) FlushOutputs() error {
	m.MU.Lock()
	outputs := m.Outputs
	m.MU.Unlock()

	var errs []error
	for _, o := range outputs {
		if err := o.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", o.Type(), err))
		}
	}
	return errors.Join(errs...)
}

// Close tears down the backend and every output
func (m *Monitor) Close() error {
	var errs []error
	if err := m.Backend.Teardown(); err != nil {
		errs = append(errs, err)
	}

	m.MU.Lock()
	outputs := m.Outputs
	m.Outputs = nil
	m.MU.Unlock()

	for _, o := range outputs {
		if err := o.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reading must be called with MU held
func (m *Monitor) reading(value uint8, mode Pt.MonitoringMode, state Pt.DetectionState) *Pt.Reading {
	m.seq++
	return &Pt.Reading{
		Session:   m.Session,
		Seq:       m.seq,
		Value:     value,
		Mode:      mode,
		State:     state,
		Timestamp: time.Now(),
	}
}

func (m *Monitor) emit(outputs []Pp.OutputAdapter, r *Pt.Reading) {
	for _, o := range outputs {
		if err := o.WriteReading(r); err != nil {
			slog.Error("Output write failed",
				slog.String("output", o.Type()),
				slog.Any("error", err))
		}
	}
}

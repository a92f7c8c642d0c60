package obvy

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is the prometheus registry for pulsemon's own health.
// A nil *StatsInternal is valid and records nothing.
type StatsInternal struct {
	Registry    *prometheus.Registry
	Ticks       prometheus.Counter
	TickTimer   prometheus.Histogram
	HeartRate   prometheus.Gauge
	Detection   prometheus.Gauge
	Mode        prometheus.Gauge
	ModeChanges prometheus.Counter
	Beats       *prometheus.CounterVec
	WWW         *prometheus.CounterVec
}

func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()
	s := &StatsInternal{
		Registry: reg,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsemon_ticks_total",
			Help: "Periodic monitor cycles run",
		}),
		TickTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pulsemon_tick_duration_seconds",
			Help:    "Time spent in one monitor cycle",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		HeartRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulsemon_heart_rate_bpm",
			Help: "Latest heart rate pushed to history",
		}),
		Detection: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulsemon_detection_state",
			Help: "Detection state: 0=N 1=H 2=L 3=R 4=F",
		}),
		Mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pulsemon_mode",
			Help: "Monitoring mode: 0=periodic 1=query 2=detect",
		}),
		ModeChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulsemon_mode_changes_total",
			Help: "Mode switch triggers",
		}),
		Beats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsemon_sensor_beats_total",
			Help: "Candidate heartbeats seen by the sensor pipeline",
		}, []string{"result"}),
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulsemon_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"code", "method"}),
	}

	reg.MustRegister(
		s.Ticks, s.TickTimer, s.HeartRate, s.Detection, s.Mode,
		s.ModeChanges, s.Beats, s.WWW,
		collectors.NewGoCollector(),
	)
	return s
}

// Handler serves this registry only
func (s *StatsInternal) Handler() http.Handler {
	if s == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{Registry: s.Registry})
}

// RecTick records one monitor cycle
func (s *StatsInternal) RecTick(seconds float64, value uint8, state, mode int) {
	if s == nil {
		return
	}
	s.Ticks.Inc()
	s.TickTimer.Observe(seconds)
	s.HeartRate.Set(float64(value))
	s.Detection.Set(float64(state))
	s.Mode.Set(float64(mode))
}

func (s *StatsInternal) RecModeChange(mode int) {
	if s == nil {
		return
	}
	s.ModeChanges.Inc()
	s.Mode.Set(float64(mode))
}

// RecBeat counts sensor candidates by outcome
func (s *StatsInternal) RecBeat(accepted bool) {
	if s == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	s.Beats.WithLabelValues(result).Inc()
}

func (s *StatsInternal) RecWWW(code, method string) {
	if s == nil {
		return
	}
	s.WWW.WithLabelValues(code, method).Inc()
}

package pulsemon

import (
	"errors"
	"fmt"
)

var (
	ErrIdentity       = errors.New("sensor identity check failed")
	ErrUnknownBackend = errors.New("unknown backend")
)

// Backend is the source of new heart rate samples.
// One is chosen when the Monitor is built and never changes.
type Backend interface {
	Setup() error      // acquire resources, an error here is fatal
	NextSample() uint8 // next value for the history
	Teardown() error   // release resources, safe to call more than once
	Type() string      // unique ID for the backend
}

// Transport is the sensor bus boundary.
// Init brings the device up and reports whether its identity matched.
type Transport interface {
	Init() (bool, error)
	ReadFIFO() (uint32, error)
}

// Backends is the map of Backend factories keyed by Type()
var Backends = map[string]func(cfg *Config, t Transport) Backend{
	"simulator": func(cfg *Config, _ Transport) Backend {
		return NewSimulator(cfg.Simulator)
	},
	"sensor": func(cfg *Config, t Transport) Backend {
		return NewSensor(cfg.Sensor, t)
	},
}

// BackendLookup builds the named backend.
// The sensor backend needs a Transport, the simulator ignores it.
func BackendLookup(name string, cfg *Config, t Transport) (Backend, error) {
	factory, ok := Backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	if name == "sensor" && t == nil {
		return nil, fmt.Errorf("sensor backend needs a transport")
	}
	return factory(cfg, t), nil
}

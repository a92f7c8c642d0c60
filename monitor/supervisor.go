package pulsemon

import (
	"sync"
	"time"
)

// Supervisor drives Monitor.Tick on a fixed period
type Supervisor struct {
	Monitor  *Monitor
	Period   time.Duration
	Ticker   *time.Ticker
	StopChan chan struct{}
	WG       sync.WaitGroup
}

func NewSupervisor(m *Monitor, period time.Duration) *Supervisor {
	if period <= 0 {
		period = time.Second
	}
	return &Supervisor{
		Monitor: m,
		Period:  period,
	}
}

// Start the Supervisor
func (s *Supervisor) Start() {
	s.StopChan = make(chan struct{})
	s.Ticker = time.NewTicker(s.Period)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		defer s.Ticker.Stop()

		for {
			select {
			case <-s.Ticker.C:
				s.Monitor.Tick()
			case <-s.StopChan:
				return
			}
		}
	}()
}

// Stop the Supervisor
func (s *Supervisor) Stop() {
	if s.StopChan != nil {
		close(s.StopChan)
		s.WG.Wait()
		s.StopChan = nil
	}
}

// Restart the Supervisor with a new period, zero keeps the current one
func (s *Supervisor) Restart(period time.Duration) {
	s.Stop()
	if period > 0 {
		s.Period = period
	}
	s.Start()
}

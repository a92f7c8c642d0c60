package plugin

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	Pt "github.com/maroda/pulsemon/types"
)

// SerialOutput writes the line protocol read by the dashboard:
//
//	BEAT <bpm>    every tick
//	RATE <code>   when the state was classified this tick
//	MODE <mode>   on a mode switch
type SerialOutput struct {
	MU     sync.Mutex
	W      io.Writer
	closer io.Closer
}

func NewSerialOutput(w io.Writer) *SerialOutput {
	return &SerialOutput{W: w}
}

// OpenSerialOutput writes to a device or file path, "-" is stdout
func OpenSerialOutput(path string) (*SerialOutput, error) {
	if path == "-" || path == "" {
		return NewSerialOutput(os.Stdout), nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		slog.Error("SerialOutput failed to open device", slog.String("path", path), slog.Any("error", err))
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	so := NewSerialOutput(f)
	so.closer = f
	return so, nil
}

// Lines renders one reading as protocol lines
func Lines(r *Pt.Reading) string {
	if r.ModeChanged {
		return fmt.Sprintf("MODE %d\n", int(r.Mode))
	}
	s := fmt.Sprintf("BEAT %d\n", r.Value)
	if r.Classified {
		s += fmt.Sprintf("RATE %c\n", r.State.Char())
	}
	return s
}

func (so *SerialOutput) WriteReading(r *Pt.Reading) error {
	so.MU.Lock()
	defer so.MU.Unlock()

	if _, err := io.WriteString(so.W, Lines(r)); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (so *SerialOutput) WriteBatch(rs []*Pt.Reading) error {
	for _, r := range rs {
		if err := so.WriteReading(r); err != nil {
			return err
		}
	}
	return nil
}

func (so *SerialOutput) QueryRange(_, _ time.Time) ([]*Pt.Reading, error) {
	return nil, ErrNoHistory
}

// Flush is a no-op, every line is written as it arrives
func (so *SerialOutput) Flush() error { return nil }

func (so *SerialOutput) Close() error {
	if so.closer == nil {
		return nil
	}
	return so.closer.Close()
}

func (so *SerialOutput) Type() string { return "Serial" }

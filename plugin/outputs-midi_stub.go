//go:build nomidi

package plugin

import (
	"fmt"
	"time"

	Pt "github.com/maroda/pulsemon/types"
)

type MIDIOutput struct{}

func NewMIDIOutput(port int, root uint8) (*MIDIOutput, error) {
	return nil, fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) WriteReading(r *Pt.Reading) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) WriteBatch(rs []*Pt.Reading) error {
	return fmt.Errorf("MIDI support not compiled in this build")
}

func (m *MIDIOutput) QueryRange(start, end time.Time) ([]*Pt.Reading, error) {
	return nil, ErrNoHistory
}

func (m *MIDIOutput) Flush() error { return nil }
func (m *MIDIOutput) Close() error { return nil }
func (m *MIDIOutput) Type() string { return "midi-disabled" }

//go:build !nomidi

package plugin

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Pt "github.com/maroda/pulsemon/types"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// MIDIOutput sonifies readings, pitch follows the heart rate
// and alert states play louder
type MIDIOutput struct {
	Port       drivers.Out
	Send       func(msg midi.Message) error
	Root       uint8         // note played at 60 BPM
	NoteLength time.Duration // zero holds each note for half a beat
	WG         sync.WaitGroup
}

func NewMIDIOutput(port int, root uint8) (*MIDIOutput, error) {
	out, err := midi.OutPort(port)
	if err != nil {
		slog.Error("Error opening MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error opening MIDI port: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		slog.Error("Error sending to MIDI port", slog.Int("port", port))
		return nil, fmt.Errorf("error sending to MIDI port: %w", err)
	}

	return &MIDIOutput{
		Port: out,
		Send: send,
		Root: root,
	}, nil
}

func (mo *MIDIOutput) SendNoteOnMIDI(midic, midin, midiv uint8) error {
	return mo.Send(midi.NoteOn(midic, midin, midiv))
}

func (mo *MIDIOutput) SendNoteOffMIDI(midic, midin uint8) error {
	return mo.Send(midi.NoteOff(midic, midin))
}

// Note is the pitch for a heart rate, one semitone per 5 BPM from Root
func (mo *MIDIOutput) Note(bpm uint8) uint8 {
	n := int(mo.Root) + (int(bpm)-60)/5
	return uint8(min(max(n, 0), 127))
}

// Velocity is louder for anything but Normal
func Velocity(st Pt.DetectionState) uint8 {
	if st == Pt.Normal {
		return 80
	}
	return 127
}

func (mo *MIDIOutput) length(bpm uint8) time.Duration {
	if mo.NoteLength > 0 {
		return mo.NoteLength
	}
	if bpm == 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(float64(time.Minute) / float64(bpm) / 2)
}

// WriteReading plays one note per tick, mode changes play on the drum channel
func (mo *MIDIOutput) WriteReading(r *Pt.Reading) error {
	var channel, note, velocity uint8
	channel = 0
	note = mo.Note(r.Value)
	velocity = Velocity(r.State)
	if r.ModeChanged {
		channel = 9
		note = 37 + uint8(r.Mode) // side stick and up
	}
	duration := mo.length(r.Value)

	mo.WG.Add(1)
	go func() {
		defer mo.WG.Done()
		if err := mo.SendNoteOnMIDI(channel, note, velocity); err != nil {
			slog.Error("NoteOn event failed", slog.Any("error", err))
		}
		time.Sleep(duration)
		if err := mo.SendNoteOffMIDI(channel, note); err != nil {
			slog.Error("NoteOff event failed, attempting Flush", slog.Any("error", err))
			mo.Flush()
		}
	}()

	return nil
}

func (mo *MIDIOutput) WriteBatch(rs []*Pt.Reading) error {
	for _, r := range rs {
		if err := mo.WriteReading(r); err != nil {
			return err
		}
	}
	return nil
}

func (mo *MIDIOutput) QueryRange(_, _ time.Time) ([]*Pt.Reading, error) {
	return nil, ErrNoHistory
}

func (mo *MIDIOutput) Flush() error {
	return mo.Send(midi.ControlChange(0, midi.AllNotesOff, midi.Off))
}

func (mo *MIDIOutput) Close() error {
	mo.WG.Wait()

	if mo.Port != nil {
		mo.Port.Close()
		midi.CloseDriver()
	}
	return nil
}

func (mo *MIDIOutput) Type() string { return "MIDI" }

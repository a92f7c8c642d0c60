//go:build !nomidi

package plugin_test

import (
	"sync"
	"testing"
	"time"

	Pp "github.com/maroda/pulsemon/plugin"
	Pt "github.com/maroda/pulsemon/types"
	"gitlab.com/gomidi/midi/v2"
)

type midiRecorder struct {
	mu   sync.Mutex
	msgs []midi.Message
}

func (m *midiRecorder) send(msg midi.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func TestMIDIOutput_Note(t *testing.T) {
	mo := &Pp.MIDIOutput{Root: 60}
	assertInt(t, int(mo.Note(60)), 60)
	assertInt(t, int(mo.Note(120)), 72)
	assertInt(t, int(mo.Note(40)), 56)

	low := &Pp.MIDIOutput{Root: 2}
	assertInt(t, int(low.Note(0)), 0)
	high := &Pp.MIDIOutput{Root: 120}
	assertInt(t, int(high.Note(255)), 127)

	assertInt(t, int(Pp.Velocity(Pt.Normal)), 80)
	assertInt(t, int(Pp.Velocity(Pt.RateHigh)), 127)
}

func TestMIDIOutput_WriteReading(t *testing.T) {
	rec := &midiRecorder{}
	mo := &Pp.MIDIOutput{Send: rec.send, Root: 60, NoteLength: time.Millisecond}

	t.Run("Plays one note per reading", func(t *testing.T) {
		assertError(t, mo.WriteReading(&Pt.Reading{Value: 80, State: Pt.Normal}), nil)
		mo.WG.Wait()

		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.msgs) != 2 {
			t.Fatalf("got %d messages, want note on and off", len(rec.msgs))
		}
		var ch, key, vel uint8
		if !rec.msgs[0].GetNoteOn(&ch, &key, &vel) {
			t.Fatalf("first message is not NoteOn: %v", rec.msgs[0])
		}
		assertInt(t, int(key), 64)
		assertInt(t, int(vel), 80)
	})

	t.Run("Mode changes use the drum channel", func(t *testing.T) {
		rec.mu.Lock()
		rec.msgs = nil
		rec.mu.Unlock()

		assertError(t, mo.WriteReading(&Pt.Reading{ModeChanged: true, Mode: Pt.Query}), nil)
		mo.WG.Wait()

		rec.mu.Lock()
		defer rec.mu.Unlock()
		var ch, key, vel uint8
		if !rec.msgs[0].GetNoteOn(&ch, &key, &vel) {
			t.Fatalf("first message is not NoteOn")
		}
		assertInt(t, int(ch), 9)
		assertInt(t, int(key), 38)
	})

	t.Run("History is not kept", func(t *testing.T) {
		_, err := mo.QueryRange(testNow, testNow)
		assertError(t, err, Pp.ErrNoHistory)
		assertError(t, mo.Flush(), nil)
		assertError(t, mo.Close(), nil)
	})
}

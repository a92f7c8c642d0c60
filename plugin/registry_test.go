package plugin_test

import (
	"path/filepath"
	"testing"

	Pp "github.com/maroda/pulsemon/plugin"
)

func TestOutputLookup(t *testing.T) {
	t.Run("Returns known output", func(t *testing.T) {
		got, err := Pp.OutputLookup("serial", Pp.Settings{SerialDevice: "-"})
		assertError(t, err, nil)
		assertStringContains(t, got.Type(), "Serial")
	})

	t.Run("Opens badger on disk", func(t *testing.T) {
		s := Pp.Settings{BadgerPath: filepath.Join(t.TempDir(), "db"), BadgerBatch: 4}
		got, err := Pp.OutputLookup("badger", s)
		assertError(t, err, nil)
		defer got.Close()
		assertStringContains(t, got.Type(), "BadgerDB")
	})

	t.Run("Returns error if outputs don't exist", func(t *testing.T) {
		_, err := Pp.OutputLookup("craquemattic", Pp.Settings{})
		assertGotError(t, err)
	})

	t.Run("Every registered output has a factory", func(t *testing.T) {
		for _, name := range []string{"badger", "midi", "nats", "mqtt", "serial"} {
			if _, ok := Pp.Outputs[name]; !ok {
				t.Errorf("missing output %s", name)
			}
		}
	})
}

package pulsemon

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	Pp "github.com/maroda/pulsemon/plugin"
)

// InitOutputs attaches the dashboard feed and every enabled output to the monitor.
// The first output that keeps history becomes the Archive for /api/readings.
// A failing output is logged and skipped, the rest still start.
func InitOutputs(v *View, s Pp.Settings) error {
	if v.Monitor == nil {
		return fmt.Errorf("no monitor to attach outputs to")
	}

	// the dashboard reads the same line protocol a serial device would carry
	v.Monitor.AddOutput(Pp.NewSerialOutput(v.Dash))

	var errs []error
	for _, name := range s.Enabled {
		output, err := Pp.OutputLookup(name, s)
		if err != nil {
			slog.Error("Failed to create adapter",
				slog.String("output", name),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("output %s: %w", name, err))
			continue
		}
		v.Monitor.AddOutput(output)

		if v.Archive == nil {
			if _, err := output.QueryRange(time.Time{}, time.Time{}); !errors.Is(err, Pp.ErrNoHistory) {
				v.Archive = output
			}
		}
		slog.Info("Adapter Enabled", slog.String("output", name), slog.String("type", output.Type()))
	}
	return errors.Join(errs...)
}

package plugin

/*
	The Adapter sits aside /pulsemon/
	Contains core interfaces for Plugin
*/

import (
	"errors"
	"time"

	Pt "github.com/maroda/pulsemon/types"
)

// ErrNoHistory is returned by QueryRange on outputs that only stream
var ErrNoHistory = errors.New("output does not keep history")

// OutputAdapter is a place for readings to go,
// one by one or in batches if supported by the output type.
type OutputAdapter interface {
	WriteReading(r *Pt.Reading) error                       // Write a single reading
	WriteBatch(rs []*Pt.Reading) error                      // Write batches of readings
	QueryRange(start, end time.Time) ([]*Pt.Reading, error) // Time range query tool
	Flush() error                                           // Flush any buffered data
	Close() error                                           // Close the adapter and release resources
	Type() string                                           // ID for output
}

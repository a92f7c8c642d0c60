package pulsemon

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultRingSize is the heartbeat history capacity
const DefaultRingSize = 64

var ErrEmpty = errors.New("ring is empty")

// Ring is a fixed size circular buffer of heart rate samples.
// Once full, Push overwrites the oldest entry; it never grows.
type Ring struct {
	Buf     []uint8
	Next    int  // next index to fill
	Wrapped bool // true once Next has wrapped back to 0
}

// NewRing returns an empty Ring, size <= 0 uses DefaultRingSize
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{
		Buf: make([]uint8, size),
	}
}

func (r *Ring) Cap() int { return len(r.Buf) }

// Len is the number of valid entries
func (r *Ring) Len() int {
	if r.Wrapped {
		return len(r.Buf)
	}
	return r.Next
}

func (r *Ring) IsWrapped() bool { return r.Wrapped }

// Push writes at the cursor and advances it
func (r *Ring) Push(v uint8) {
	r.Buf[r.Next] = v
	r.Next = (r.Next + 1) % len(r.Buf)
	if r.Next == 0 {
		r.Wrapped = true
	}
}

// Latest is the most recently pushed value
func (r *Ring) Latest() (uint8, error) {
	if r.Len() == 0 {
		return 0, ErrEmpty
	}
	return r.Buf[r.prev(r.Next)], nil
}

// LastN returns up to n of the most recent entries, oldest first,
// along with the count actually returned.
// The walk goes backward from the last filled slot and stops
// at index 0 when the ring has not wrapped yet.
func (r *Ring) LastN(n int) ([]uint8, int) {
	if n <= 0 || r.Len() == 0 {
		return nil, 0
	}

	out := make([]uint8, 0, n)
	idx := r.prev(r.Next)
	for len(out) < n {
		out = append(out, r.Buf[idx])
		if !r.Wrapped && idx == 0 {
			break
		}
		idx = r.prev(idx)
		if idx == r.prev(r.Next) {
			// walked the whole ring
			break
		}
	}

	// collected newest first, flip to chronological
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, len(out)
}

// FindFirst returns the raw slot index of the first valid entry equal to v, or -1
func (r *Ring) FindFirst(v uint8) int {
	for i := 0; i < r.Len(); i++ {
		if r.Buf[i] == v {
			return i
		}
	}
	return -1
}

// FindAll returns every raw slot index holding v
func (r *Ring) FindAll(v uint8) []int {
	var found []int
	for i := 0; i < r.Len(); i++ {
		if r.Buf[i] == v {
			found = append(found, i)
		}
	}
	return found
}

// Values is the whole valid history, oldest first
func (r *Ring) Values() []uint8 {
	vals, _ := r.LastN(r.Len())
	return vals
}

// Reset empties the ring, this is the only way Wrapped goes back to false
func (r *Ring) Reset() {
	clear(r.Buf)
	r.Next = 0
	r.Wrapped = false
}

// String dumps the history in the "MONITOR: 72 74 75 |" format
func (r *Ring) String() string {
	var sb strings.Builder
	sb.WriteString("MONITOR:")
	for _, v := range r.Values() {
		fmt.Fprintf(&sb, " %d", v)
	}
	sb.WriteString(" |")
	return sb.String()
}

func (r *Ring) prev(i int) int {
	return (i + len(r.Buf) - 1) % len(r.Buf)
}

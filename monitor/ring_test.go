package pulsemon

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestNewRing(t *testing.T) {
	t.Run("Uses the default size for zero", func(t *testing.T) {
		r := NewRing(0)
		assertInt(t, r.Cap(), DefaultRingSize)
		assertInt(t, r.Len(), 0)
	})

	t.Run("Uses the given size", func(t *testing.T) {
		r := NewRing(8)
		assertInt(t, r.Cap(), 8)
	})
}

func TestRing_Push(t *testing.T) {
	t.Run("Len follows Next until wrapped", func(t *testing.T) {
		r := NewRing(4)
		r.Push(70)
		r.Push(71)
		assertInt(t, r.Len(), 2)
		assertInt(t, r.Next, 2)
		if r.IsWrapped() {
			t.Errorf("ring should not be wrapped after 2 pushes")
		}
	})

	t.Run("Wraps and never grows", func(t *testing.T) {
		r := NewRing(4)
		for i := range 10 {
			r.Push(uint8(60 + i))
			if r.Len() > r.Cap() {
				t.Fatalf("Len %d exceeds Cap %d", r.Len(), r.Cap())
			}
			if r.Next < 0 || r.Next >= r.Cap() {
				t.Fatalf("cursor out of range: %d", r.Next)
			}
		}
		if !r.IsWrapped() {
			t.Errorf("ring should be wrapped after 10 pushes")
		}
		assertInt(t, r.Len(), 4)
		assertInt(t, len(r.Buf), 4)
	})

	t.Run("Wraps exactly at capacity", func(t *testing.T) {
		r := NewRing(3)
		r.Push(1)
		r.Push(2)
		r.Push(3)
		if !r.IsWrapped() {
			t.Errorf("ring should wrap on the capacity push")
		}
		assertInt(t, r.Next, 0)
	})
}

func TestRing_Latest(t *testing.T) {
	r := NewRing(4)
	_, err := r.Latest()
	assertError(t, err, ErrEmpty)

	r.Push(88)
	r.Push(90)
	got, err := r.Latest()
	if err != nil {
		t.Fatal(err)
	}
	assertInt(t, int(got), 90)

	// across the wrap boundary
	r.Push(91)
	r.Push(92)
	got, _ = r.Latest()
	assertInt(t, int(got), 92)
}

func TestRing_LastN(t *testing.T) {
	t.Run("Empty ring returns nothing", func(t *testing.T) {
		r := NewRing(8)
		vals, n := r.LastN(5)
		assertInt(t, n, 0)
		assertInt(t, len(vals), 0)
	})

	t.Run("Partial fill returns what exists, oldest first", func(t *testing.T) {
		r := NewRing(64)
		r.Push(72)
		r.Push(74)
		r.Push(75)
		vals, n := r.LastN(5)
		assertInt(t, n, 3)
		assertBytes(t, vals, []uint8{72, 74, 75})
	})

	t.Run("Returns the most recent n", func(t *testing.T) {
		r := NewRing(64)
		for i := range 20 {
			r.Push(uint8(i))
		}
		vals, n := r.LastN(5)
		assertInt(t, n, 5)
		assertBytes(t, vals, []uint8{15, 16, 17, 18, 19})
	})

	t.Run("Crosses the wrap boundary in order", func(t *testing.T) {
		r := NewRing(4)
		for _, v := range []uint8{1, 2, 3, 4, 5, 6} {
			r.Push(v)
		}
		vals, n := r.LastN(3)
		assertInt(t, n, 3)
		assertBytes(t, vals, []uint8{4, 5, 6})
	})

	t.Run("Never returns more than capacity", func(t *testing.T) {
		r := NewRing(4)
		for _, v := range []uint8{1, 2, 3, 4, 5, 6} {
			r.Push(v)
		}
		vals, n := r.LastN(10)
		assertInt(t, n, 4)
		assertBytes(t, vals, []uint8{3, 4, 5, 6})
	})

	t.Run("Window equals min of n and Len", func(t *testing.T) {
		r := NewRing(8)
		for i := range 12 {
			want := min(RecentWindow, r.Len())
			_, n := r.LastN(RecentWindow)
			assertInt(t, n, want)
			r.Push(uint8(i))
		}
	})
}

func TestRing_Find(t *testing.T) {
	r := NewRing(8)
	for _, v := range []uint8{70, 80, 70, 90} {
		r.Push(v)
	}

	assertInt(t, r.FindFirst(70), 0)
	assertInt(t, r.FindFirst(90), 3)
	assertInt(t, r.FindFirst(100), -1)

	if got := r.FindAll(70); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("FindAll(70) = %v, want [0 2]", got)
	}
	if got := r.FindAll(100); len(got) != 0 {
		t.Errorf("FindAll(100) = %v, want none", got)
	}

	t.Run("Ignores unfilled slots", func(t *testing.T) {
		// the zeroed tail is not history
		assertInt(t, r.FindFirst(0), -1)
	})
}

func TestRing_ResetAndString(t *testing.T) {
	r := NewRing(3)
	for _, v := range []uint8{72, 74, 75, 76} {
		r.Push(v)
	}
	assertString(t, r.String(), "MONITOR: 74 75 76 |")

	r.Reset()
	assertInt(t, r.Len(), 0)
	if r.IsWrapped() {
		t.Errorf("Reset should clear Wrapped")
	}
	assertString(t, r.String(), "MONITOR: |")
}

// Helpers //

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertGotError(t testing.TB, got error) {
	t.Helper()
	if got == nil {
		t.Errorf("Expected an error but got %q", got)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertFloat(t *testing.T, got, want float64) {
	t.Helper()
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("did not get correct value, got %f, want %f", got, want)
	}
}

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}

func assertBytes(t *testing.T, got, want []uint8) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

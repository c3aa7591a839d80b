package rack

import "fmt"

// Handle identifies module or wire registered in the engine. Handle of
// removed entry becomes stale and every lookup with it fails with
// ErrStaleHandle, even if its slot is reused.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero returns true for handle that was never issued.
func (h Handle) IsZero() bool {
	return h.generation == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.index, h.generation)
}

// arena stores values addressed by handles. Slots are reused, generation
// is bumped on every removal.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
}

type slot[T any] struct {
	generation uint32
	used       bool
	value      T
}

func (a *arena[T]) insert(v T) Handle {
	var i uint32
	if n := len(a.free); n > 0 {
		i = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		i = uint32(len(a.slots) - 1)
	}
	s := &a.slots[i]
	// generation zero is reserved for zero handle.
	if s.generation == 0 {
		s.generation = 1
	}
	s.used = true
	s.value = v
	return Handle{index: i, generation: s.generation}
}

func (a *arena[T]) get(h Handle) (T, bool) {
	var zero T
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.index]
	if !s.used || s.generation != h.generation {
		return zero, false
	}
	return s.value, true
}

func (a *arena[T]) remove(h Handle) bool {
	if _, ok := a.get(h); !ok {
		return false
	}
	s := &a.slots[h.index]
	var zero T
	s.value = zero
	s.used = false
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	a.free = append(a.free, h.index)
	return true
}

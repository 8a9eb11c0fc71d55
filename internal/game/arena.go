package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a generational index into an Arena. The low 32 bits hold the slot
// index and the high 32 bits its generation, so an ID of a removed entity
// never resolves to whatever later reuses the slot.
//
// IDs travel as decimal strings in JSON: they exceed the integer range of a
// float64 once a slot has been reused often enough.
type ID uint64

// NoID is never issued by an Arena.
const NoID ID = 0

func makeID(index, gen uint32) ID {
	return ID(uint64(gen)<<32 | uint64(index))
}

// Index returns the slot index.
func (id ID) Index() uint32 { return uint32(id) }

// Gen returns the generation.
func (id ID) Gen() uint32 { return uint32(id >> 32) }

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts the string form and, for hand-written clients,
// a plain JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	text := string(data)
	if bytes.HasPrefix(data, []byte(`"`)) {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", text)
	}
	*id = ID(v)
	return nil
}

type slot[T any] struct {
	gen   uint32
	alive bool
	val   T
}

// Arena stores values addressed by generational IDs.
// It is not safe for concurrent use.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns its ID.
func (a *Arena[T]) Insert(v T) ID {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}

	s := &a.slots[idx]
	// Generations start at 1 so that NoID is never valid.
	s.gen++
	s.alive = true
	s.val = v
	a.count++
	return makeID(idx, s.gen)
}

// Get returns the value for id if it is still alive.
func (a *Arena[T]) Get(id ID) (T, bool) {
	var zero T
	idx := id.Index()
	if int(idx) >= len(a.slots) {
		return zero, false
	}
	s := a.slots[idx]
	if !s.alive || s.gen != id.Gen() {
		return zero, false
	}
	return s.val, true
}

// Remove deletes id. It returns false if id was already gone.
func (a *Arena[T]) Remove(id ID) bool {
	idx := id.Index()
	if int(idx) >= len(a.slots) {
		return false
	}
	s := &a.slots[idx]
	if !s.alive || s.gen != id.Gen() {
		return false
	}
	var zero T
	s.alive = false
	s.val = zero
	a.free = append(a.free, idx)
	a.count--
	return true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	return a.count
}

// IDs returns the live IDs in slot order.
func (a *Arena[T]) IDs() []ID {
	ids := make([]ID, 0, a.count)
	for i, s := range a.slots {
		if s.alive {
			ids = append(ids, makeID(uint32(i), s.gen))
		}
	}
	return ids
}

// Each calls fn for every live value in slot order.
func (a *Arena[T]) Each(fn func(ID, T)) {
	for i, s := range a.slots {
		if s.alive {
			fn(makeID(uint32(i), s.gen), s.val)
		}
	}
}

// Clear removes every value. Previously issued IDs stay invalid.
func (a *Arena[T]) Clear() {
	var zero T
	a.free = a.free[:0]
	for i := range a.slots {
		a.slots[i].alive = false
		a.slots[i].val = zero
		a.free = append(a.free, uint32(i))
	}
	a.count = 0
}

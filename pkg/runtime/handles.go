package runtime

import "sync"

// Handle identifies a live instance. The low 20 bits hold the slot index
// plus one and the high 12 bits the slot generation, so a handle to a freed
// slot stays invalid after the slot is reused. Zero is never a valid handle.
// Handles fit in a pointer on every supported platform.
type Handle uint32

const (
	indexBits = 20
	maxSlots  = 1<<indexBits - 1
	genMask   = 1<<(32-indexBits) - 1
)

func makeHandle(index int, gen uint32) Handle {
	return Handle((gen&genMask)<<indexBits | uint32(index+1))
}

func (h Handle) split() (index int, gen uint32) {
	return int(uint32(h)&maxSlots) - 1, uint32(h) >> indexBits
}

// HandleTable is an arena of values addressed by generation-checked handles.
// It is safe for concurrent use; the values themselves are not guarded.
type HandleTable[T any] struct {
	mu       sync.RWMutex
	entries  []slot[T]
	freeList []int
}

type slot[T any] struct {
	value T
	gen   uint32
	valid bool
}

// NewHandleTable creates an empty table.
func NewHandleTable[T any]() *HandleTable[T] {
	return &HandleTable[T]{
		entries:  make([]slot[T], 0, 16),
		freeList: make([]int, 0, 4),
	}
}

// Acquire stores v and returns its handle, or false when the table is full.
func (t *HandleTable[T]) Acquire(v T) (Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		s := &t.entries[idx]
		s.value = v
		s.valid = true
		return makeHandle(idx, s.gen), true
	}

	if len(t.entries) >= maxSlots {
		return 0, false
	}
	t.entries = append(t.entries, slot[T]{value: v, valid: true})
	return makeHandle(len(t.entries)-1, 0), true
}

// Lookup returns the value for h.
func (t *HandleTable[T]) Lookup(h Handle) (T, bool) {
	var zero T
	if h == 0 {
		return zero, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, gen := h.split()
	if idx < 0 || idx >= len(t.entries) {
		return zero, false
	}
	s := t.entries[idx]
	if !s.valid || s.gen != gen {
		return zero, false
	}
	return s.value, true
}

// Release removes h and returns its value. It succeeds exactly once per
// handle.
func (t *HandleTable[T]) Release(h Handle) (T, bool) {
	var zero T
	if h == 0 {
		return zero, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx, gen := h.split()
	if idx < 0 || idx >= len(t.entries) {
		return zero, false
	}
	s := &t.entries[idx]
	if !s.valid || s.gen != gen {
		return zero, false
	}

	v := s.value
	s.value = zero
	s.valid = false
	s.gen = (s.gen + 1) & genMask
	t.freeList = append(t.freeList, idx)
	return v, true
}

// Len returns the number of live handles.
func (t *HandleTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries) - len(t.freeList)
}

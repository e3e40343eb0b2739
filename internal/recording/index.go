package recording

import "sync"

// Index is the navigable list of a project's recordings with the current position.
type Index struct {
	mu      sync.RWMutex
	items   []Recording
	current int
}

func NewIndex(items []Recording) *Index {
	return &Index{items: items, current: -1}
}

// Reset replaces the list and clears the position.
func (x *Index) Reset(items []Recording) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.items = items
	x.current = -1
}

func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.items)
}

func (x *Index) Items() []Recording {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]Recording(nil), x.items...)
}

func (x *Index) At(i int) (Recording, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i < 0 || i >= len(x.items) {
		return Recording{}, false
	}
	return x.items[i], true
}

// Current returns the position, -1 when nothing is open.
func (x *Index) Current() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.current
}

func (x *Index) SetCurrent(i int) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if i < 0 || i >= len(x.items) {
		return false
	}
	x.current = i
	return true
}

// Next returns the index after i, if any.
func (x *Index) Next(i int) (int, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i+1 >= len(x.items) {
		return i, false
	}
	return i + 1, true
}

// Prev returns the index before i, if any.
func (x *Index) Prev(i int) (int, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i <= 0 || len(x.items) == 0 {
		return i, false
	}
	return i - 1, true
}

// Find returns the position of the recording in dir.
func (x *Index) Find(dir string) (int, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	for i, r := range x.items {
		if r.Dir == dir {
			return i, true
		}
	}
	return -1, false
}

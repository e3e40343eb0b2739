package annotation

import (
	"fmt"
	"sync"

	"github.com/jinzhu/copier"
)

const DefaultUndoDepth = 20

// Manager owns the events of one recording together with the current selection and undo history.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	events   []Event
	selected int
	history  [][]Event
	depth    int
}

// NewManager returns an empty manager keeping at most depth undo snapshots.
func NewManager(depth int) *Manager {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	return &Manager{selected: -1, depth: depth}
}

// Create appends a new, unmarked event and selects it. An existing event with the same name is
// selected instead and ErrDuplicateEvent is returned.
func (m *Manager) Create(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, ev := range m.events {
		if ev.Name == name {
			m.selected = i
			return fmt.Errorf("%w: %s already exists, complete or delete it first", ErrDuplicateEvent, name)
		}
	}

	m.snapshot()
	m.events = append(m.events, NewEvent(name))
	m.selected = len(m.events) - 1
	return nil
}

// MarkStart sets the start frame of the selected event.
func (m *Manager) MarkStart(frame int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, err := m.selectedEvent()
	if err != nil {
		return err
	}
	if ev.End != Unset && frame > ev.End {
		return fmt.Errorf("%w: start frame cannot be after end frame", ErrInvalidRange)
	}

	m.snapshot()
	m.events[m.selected].Start = frame
	return nil
}

// MarkEnd sets the end frame of the selected event.
func (m *Manager) MarkEnd(frame int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, err := m.selectedEvent()
	if err != nil {
		return err
	}
	if ev.Start != Unset && frame < ev.Start {
		return fmt.Errorf("%w: end frame cannot be before start frame", ErrInvalidRange)
	}

	m.snapshot()
	m.events[m.selected].End = frame
	return nil
}

// DeleteSelected removes the selected event and returns it. The selection moves to the last
// remaining event when it falls off the end of the list.
func (m *Manager) DeleteSelected() (Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, err := m.selectedEvent()
	if err != nil {
		return Event{}, err
	}

	m.snapshot()
	m.events = append(m.events[:m.selected], m.events[m.selected+1:]...)

	switch {
	case len(m.events) == 0:
		m.selected = -1
	case m.selected >= len(m.events):
		m.selected = len(m.events) - 1
	}
	return ev, nil
}

func (m *Manager) Select(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.events) {
		return false
	}
	m.selected = index
	return true
}

func (m *Manager) Selected() (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected, m.selected >= 0
}

// JumpTarget returns the frame to seek to for event index. With useEnd the end frame is preferred;
// otherwise the start, falling back to the end when only that is set.
func (m *Manager) JumpTarget(index int, useEnd bool) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.events) {
		return 0, false
	}
	ev := m.events[index]

	switch {
	case useEnd && ev.End != Unset:
		return ev.End, true
	case ev.Start != Unset:
		return ev.Start, true
	case ev.End != Unset:
		return ev.End, true
	}
	return 0, false
}

// Undo restores the state before the last modifying call.
func (m *Manager) Undo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return ErrNothingToUndo
	}

	last := len(m.history) - 1
	m.events = m.history[last]
	m.history = m.history[:last]

	if m.selected >= len(m.events) {
		m.selected = -1
	}
	return nil
}

// CanUndo reports whether Undo would succeed.
func (m *Manager) CanUndo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history) > 0
}

// Checkpoint records the current state in the undo history without changing anything.
// It is used after bulk loads so the first undo returns to the loaded state.
func (m *Manager) Checkpoint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot()
}

// Append adds events without touching the history or selection. The first loaded event becomes
// selected when nothing was selected yet.
func (m *Manager) Append(events ...Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, events...)
	if m.selected < 0 && len(m.events) > 0 {
		m.selected = 0
	}
}

// DisplayText renders an event for the event list, or "" for an invalid index.
func (m *Manager) DisplayText(index int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.events) {
		return ""
	}
	return m.events[index].String()
}

// Events returns a copy of the event list.
func (m *Manager) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// EventAt returns the first complete event containing frame.
func (m *Manager) EventAt(frame int) (Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ev := range m.events {
		if ev.Contains(frame) {
			return ev, true
		}
	}
	return Event{}, false
}

// Clear drops all events, the selection and the undo history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = nil
	m.selected = -1
	m.history = nil
}

func (m *Manager) selectedEvent() (Event, error) {
	if m.selected < 0 || m.selected >= len(m.events) {
		return Event{}, fmt.Errorf("%w: create or select an event first", ErrNoSelection)
	}
	return m.events[m.selected], nil
}

// snapshot must be called with mu held.
func (m *Manager) snapshot() {
	state := make([]Event, 0, len(m.events))
	if err := copier.CopyWithOption(&state, &m.events, copier.Option{DeepCopy: true}); err != nil {
		state = append(state[:0], m.events...)
	}

	m.history = append(m.history, state)
	if len(m.history) > m.depth {
		m.history = m.history[len(m.history)-m.depth:]
	}
}

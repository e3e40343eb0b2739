package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSelectsNewEvent(t *testing.T) {
	m := NewManager(0)

	require.NoError(t, m.Create("Approach M1"))
	require.NoError(t, m.Create("View M1"))

	idx, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []Event{NewEvent("Approach M1"), NewEvent("View M1")}, m.Events())
}

func TestCreateDuplicateSelectsExisting(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.Create("A"))
	require.NoError(t, m.Create("B"))

	err := m.Create("A")
	assert.ErrorIs(t, err, ErrDuplicateEvent)
	assert.Equal(t, 2, m.Len())

	idx, _ := m.Selected()
	assert.Equal(t, 0, idx)
}

func TestMarkRequiresSelection(t *testing.T) {
	m := NewManager(0)
	assert.ErrorIs(t, m.MarkStart(5), ErrNoSelection)
	assert.ErrorIs(t, m.MarkEnd(5), ErrNoSelection)
}

func TestMarkRangeChecks(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.Create("A"))

	require.NoError(t, m.MarkEnd(10))
	assert.ErrorIs(t, m.MarkStart(11), ErrInvalidRange)
	require.NoError(t, m.MarkStart(10), "start may equal end")

	assert.ErrorIs(t, m.MarkEnd(9), ErrInvalidRange)
	require.NoError(t, m.MarkEnd(20))

	assert.Equal(t, Event{Name: "A", Start: 10, End: 20}, m.Events()[0])
}

func TestDeleteSelectedMovesSelection(t *testing.T) {
	m := NewManager(0)
	for _, n := range []string{"A", "B", "C"} {
		require.NoError(t, m.Create(n))
	}

	ev, err := m.DeleteSelected()
	require.NoError(t, err)
	assert.Equal(t, "C", ev.Name)
	idx, _ := m.Selected()
	assert.Equal(t, 1, idx)

	require.True(t, m.Select(0))
	_, err = m.DeleteSelected()
	require.NoError(t, err)
	idx, _ = m.Selected()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "B", m.Events()[0].Name)

	_, err = m.DeleteSelected()
	require.NoError(t, err)
	_, ok := m.Selected()
	assert.False(t, ok)

	_, err = m.DeleteSelected()
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSelectBounds(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.Create("A"))
	assert.False(t, m.Select(-1))
	assert.False(t, m.Select(1))
	assert.True(t, m.Select(0))
}

func TestJumpTarget(t *testing.T) {
	m := NewManager(0)
	m.Append(
		Event{Name: "both", Start: 5, End: 9},
		Event{Name: "start only", Start: 3, End: Unset},
		Event{Name: "end only", Start: Unset, End: 7},
		NewEvent("none"),
	)

	tests := []struct {
		index  int
		useEnd bool
		want   int
		ok     bool
	}{
		{0, false, 5, true},
		{0, true, 9, true},
		{1, true, 3, true},
		{2, false, 7, true},
		{3, false, 0, false},
		{9, false, 0, false},
	}
	for _, tt := range tests {
		got, ok := m.JumpTarget(tt.index, tt.useEnd)
		assert.Equal(t, tt.ok, ok, "index %d", tt.index)
		assert.Equal(t, tt.want, got, "index %d", tt.index)
	}
}

func TestUndo(t *testing.T) {
	m := NewManager(0)
	assert.ErrorIs(t, m.Undo(), ErrNothingToUndo)

	require.NoError(t, m.Create("A"))
	require.NoError(t, m.MarkStart(4))
	require.NoError(t, m.MarkEnd(8))

	require.NoError(t, m.Undo())
	assert.Equal(t, Event{Name: "A", Start: 4, End: Unset}, m.Events()[0])

	require.NoError(t, m.Undo())
	assert.Equal(t, NewEvent("A"), m.Events()[0])

	require.NoError(t, m.Undo())
	assert.Zero(t, m.Len())
	_, ok := m.Selected()
	assert.False(t, ok, "selection past the restored list is cleared")
	assert.False(t, m.CanUndo())
}

func TestUndoSnapshotsAreIndependent(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.Create("A"))
	require.NoError(t, m.MarkStart(1))
	require.NoError(t, m.MarkStart(2))

	require.NoError(t, m.Undo())
	assert.Equal(t, 1, m.Events()[0].Start)
}

func TestUndoDepthIsBounded(t *testing.T) {
	m := NewManager(3)
	require.NoError(t, m.Create("A"))
	for f := 0; f < 10; f++ {
		require.NoError(t, m.MarkStart(f))
	}

	undone := 0
	for m.Undo() == nil {
		undone++
	}
	assert.Equal(t, 3, undone)
	assert.Equal(t, 6, m.Events()[0].Start)
}

func TestDisplayText(t *testing.T) {
	m := NewManager(0)
	m.Append(Event{Name: "View M2", Start: 12, End: Unset})

	assert.Equal(t, "View M2: Start=12, End=N/A", m.DisplayText(0))
	assert.Equal(t, "", m.DisplayText(1))
}

func TestEventAt(t *testing.T) {
	m := NewManager(0)
	m.Append(
		Event{Name: "open", Start: 0, End: Unset},
		Event{Name: "first", Start: 10, End: 20},
		Event{Name: "overlap", Start: 15, End: 30},
	)

	ev, ok := m.EventAt(15)
	assert.True(t, ok)
	assert.Equal(t, "first", ev.Name)

	ev, ok = m.EventAt(25)
	assert.True(t, ok)
	assert.Equal(t, "overlap", ev.Name)

	_, ok = m.EventAt(5)
	assert.False(t, ok)
}

func TestAppendSelectsFirstAndCheckpoint(t *testing.T) {
	m := NewManager(0)
	m.Append(Event{Name: "A", Start: 1, End: 2})

	idx, ok := m.Selected()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.False(t, m.CanUndo())

	m.Checkpoint()
	require.NoError(t, m.MarkEnd(5))
	require.NoError(t, m.Undo())
	require.NoError(t, m.Undo())
	assert.Equal(t, 2, m.Events()[0].End)
}

func TestClear(t *testing.T) {
	m := NewManager(0)
	require.NoError(t, m.Create("A"))
	m.Clear()

	assert.Zero(t, m.Len())
	assert.False(t, m.CanUndo())
	_, ok := m.Selected()
	assert.False(t, ok)
}

func TestDuration(t *testing.T) {
	d, ok := Duration(0, 29, 30)
	assert.True(t, ok)
	assert.Equal(t, 1.0, d)

	d, ok = Duration(10, 54, 30)
	assert.True(t, ok)
	assert.Equal(t, 1.5, d)

	_, ok = Duration(Unset, 5, 30)
	assert.False(t, ok)
	_, ok = Duration(0, 5, 0)
	assert.False(t, ok)
}

// Package annotation holds the per-recording event list, its undo history and the on-disk formats
// (events.csv and markerInterval.tsv).
package annotation

import (
	"errors"
	"fmt"
	"math"
)

// Unset marks a start or end frame that has not been annotated yet.
const Unset = -1

var (
	ErrNoSelection        = errors.New("no event selected")
	ErrDuplicateEvent     = errors.New("event already exists")
	ErrInvalidRange       = errors.New("invalid event range")
	ErrNothingToUndo      = errors.New("no actions to undo")
	ErrIncompleteEvent    = errors.New("event is missing start or end frame")
	ErrIncompleteMetadata = errors.New("metadata incomplete")
)

// Event is a named interval on the video timeline, in frame numbers.
type Event struct {
	Name  string
	Start int
	End   int
}

func NewEvent(name string) Event {
	return Event{Name: name, Start: Unset, End: Unset}
}

// Complete reports whether both bounds are set.
func (e Event) Complete() bool {
	return e.Start != Unset && e.End != Unset
}

// Contains reports whether frame lies inside a complete event, bounds included.
func (e Event) Contains(frame int) bool {
	return e.Complete() && e.Start <= frame && frame <= e.End
}

func (e Event) String() string {
	return fmt.Sprintf("%s: Start=%s, End=%s", e.Name, frameText(e.Start), frameText(e.End))
}

func frameText(f int) string {
	if f == Unset {
		return "N/A"
	}
	return fmt.Sprintf("%d", f)
}

// Duration is the inclusive length of [start, end] in seconds, rounded to one decimal.
// ok is false when either bound is unset or the frame rate is unknown.
func Duration(start, end int, fps float64) (seconds float64, ok bool) {
	if start == Unset || end == Unset || fps <= 0 {
		return 0, false
	}
	return math.Round(float64(end-start+1)/fps*10) / 10, true
}

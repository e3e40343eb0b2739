// Package overlay computes what is drawn over a video frame: gaze dot positions, the active event
// and its label. It has no OpenCV or GUI dependency.
package overlay

import (
	"fmt"
	"image"
	"strings"

	"zarafe/internal/annotation"
	"zarafe/internal/gaze"
)

// Scale maps gaze points from source frame pixels to a display of dstW x dstH. Points outside the
// source frame are dropped.
func Scale(points []gaze.Point, srcW, srcH, dstW, dstH int) []image.Point {
	if srcW <= 0 || srcH <= 0 || len(points) == 0 {
		return nil
	}
	sx := float64(dstW) / float64(srcW)
	sy := float64(dstH) / float64(srcH)

	out := make([]image.Point, 0, len(points))
	for _, p := range points {
		if p.X < 0 || p.Y < 0 || p.X >= float64(srcW) || p.Y >= float64(srcH) {
			continue
		}
		out = append(out, image.Pt(int(p.X*sx), int(p.Y*sy)))
	}
	return out
}

// Fit returns the largest size with the aspect ratio of src that fits in box.
func Fit(srcW, srcH, boxW, boxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	if srcW*boxH <= boxW*srcH {
		return srcW * boxH / srcH, boxH
	}
	return boxW, srcH * boxW / srcW
}

// LookupFrame converts the 0-based playback position to the frame number events are matched
// against. It applies to event matching only; gaze samples are keyed by the 0-based frame.
func LookupFrame(current int) int {
	return current + 1
}

// Content is the overlay of one displayed frame.
type Content struct {
	Gaze   []gaze.Point
	Event  annotation.Event
	Active bool
}

// At collects the overlay for the 0-based frame current: the gaze samples recorded during that
// frame and the event covering it.
func At(data *gaze.Data, events []annotation.Event, current int) Content {
	c := Content{Gaze: data.Points(current)}
	c.Event, c.Active = Active(events, current)
	return c
}

// Active returns the first complete event covering the displayed frame.
func Active(events []annotation.Event, current int) (annotation.Event, bool) {
	frame := LookupFrame(current)
	for _, ev := range events {
		if ev.Contains(frame) {
			return ev, true
		}
	}
	return annotation.Event{}, false
}

// Label is the caption shown while an event is active. Non-marker names are shortened to their
// first and last word, e.g. "Approach the M1" becomes "Approach M1".
func Label(ev annotation.Event, cls annotation.Classifier, fps float64) string {
	dur := "N/A"
	if d, ok := annotation.Duration(ev.Start, ev.End, fps); ok {
		dur = fmt.Sprintf("%.1fs", d)
	}

	name := ev.Name
	if !cls.IsMarkerInterval(ev.Name) {
		if parts := strings.Fields(ev.Name); len(parts) >= 2 {
			name = parts[0] + " " + parts[len(parts)-1]
		}
	}
	return fmt.Sprintf("%s (%s)", name, dur)
}

func FrameInfo(current, total int) string {
	return fmt.Sprintf("Frame: %d / %d", current+1, total)
}

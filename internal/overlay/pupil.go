package overlay

import (
	"math"

	"zarafe/internal/annotation"
)

// PlotPoint is a position inside a plot area, origin top-left.
type PlotPoint struct {
	X, Y float32
}

// Span is the horizontal extent of an event in a plot area.
type Span struct {
	Name   string
	X0, X1 float32
}

// FrameX maps a 0-based frame to the x position of a plot of width w covering total frames.
func FrameX(frame, total int, w float32) float32 {
	if total <= 1 {
		return 0
	}
	frame = min(max(frame, 0), total-1)
	return w * float32(frame) / float32(total-1)
}

// PupilLines turns a per-frame pupil series into polylines for a w x h plot. Frames are averaged
// into at most one value per horizontal unit, the value range fills the height, and gaps in the
// data split the line.
func PupilLines(series []float64, w, h float32) [][]PlotPoint {
	if len(series) == 0 || w <= 0 || h <= 0 {
		return nil
	}
	lo, hi, ok := finiteRange(series)
	if !ok {
		return nil
	}

	buckets := min(len(series), max(int(w), 1))
	var (
		lines [][]PlotPoint
		cur   []PlotPoint
	)
	for b := 0; b < buckets; b++ {
		from := b * len(series) / buckets
		to := (b + 1) * len(series) / buckets
		v, ok := mean(series[from:to])
		if !ok {
			if len(cur) > 0 {
				lines = append(lines, cur)
				cur = nil
			}
			continue
		}

		y := h / 2
		if hi > lo {
			y = h - float32((v-lo)/(hi-lo))*h
		}
		cur = append(cur, PlotPoint{X: FrameX((from+to-1)/2, len(series), w), Y: y})
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

// EventSpans places the complete events on a plot of width w. Events are matched one frame ahead
// of the playback position, see LookupFrame, so a span starts at frame Start-1.
func EventSpans(events []annotation.Event, total int, w float32) []Span {
	var spans []Span
	for _, ev := range events {
		if !ev.Complete() {
			continue
		}
		spans = append(spans, Span{
			Name: ev.Name,
			X0:   FrameX(ev.Start-1, total, w),
			X1:   FrameX(ev.End-1, total, w),
		})
	}
	return spans
}

func finiteRange(series []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi, ok = math.Min(lo, v), math.Max(hi, v), true
	}
	return lo, hi, ok
}

func mean(values []float64) (float64, bool) {
	var sum float64
	n := 0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

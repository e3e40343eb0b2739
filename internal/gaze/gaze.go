// Package gaze loads the per-frame gaze positions exported by glassesTools.
package gaze

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	FileName      = "gazeData.tsv"
	LocalFileName = "gazeData_local.tsv"

	colFrame = "frame_idx"
	colX     = "gaze_pos_vid_x"
	colY     = "gaze_pos_vid_y"

	// optional pupil diameter columns, in mm
	colPupilL = "pup_diam_l"
	colPupilR = "pup_diam_r"
)

var ErrNotFound = errors.New("no gaze data file")

// Point is a gaze position in scene-video pixel coordinates.
type Point struct {
	X, Y float64
}

// Data maps video frames to the gaze samples recorded during them.
type Data struct {
	byFrame map[int][]Point
	samples int
	pupil   map[int]pupilSum
}

type pupilSum struct {
	total float64
	n     int
}

// Points returns the samples of frame in file order.
func (d *Data) Points(frame int) []Point {
	if d == nil {
		return nil
	}
	return d.byFrame[frame]
}

// Frames is the number of distinct frames with at least one sample.
func (d *Data) Frames() int {
	if d == nil {
		return 0
	}
	return len(d.byFrame)
}

func (d *Data) Samples() int {
	if d == nil {
		return 0
	}
	return d.samples
}

// Pupil is the mean pupil diameter over the samples of frame. Both eyes are averaged when both are
// present.
func (d *Data) Pupil(frame int) (float64, bool) {
	if d == nil {
		return 0, false
	}
	p, ok := d.pupil[frame]
	if !ok || p.n == 0 {
		return 0, false
	}
	return p.total / float64(p.n), true
}

// HasPupil reports whether the file carried any pupil diameter.
func (d *Data) HasPupil() bool {
	return d != nil && len(d.pupil) > 0
}

// PupilSeries returns one value per video frame, NaN where no diameter was recorded.
func (d *Data) PupilSeries(total int) []float64 {
	if total <= 0 || !d.HasPupil() {
		return nil
	}
	out := make([]float64, total)
	for i := range out {
		if v, ok := d.Pupil(i); ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Locate returns the gaze file of a recording directory, preferring gazeData.tsv.
func Locate(dir string) (string, error) {
	for _, name := range []string{FileName, LocalFileName} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
}

func Load(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// Parse reads tab-separated gaze samples. Rows without a usable frame index or position are skipped.
func Parse(r io.Reader) (*Data, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty gaze file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{colFrame: -1, colX: -1, colY: -1, colPupilL: -1, colPupilR: -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	for _, c := range []string{colFrame, colX, colY} {
		if idx[c] < 0 {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	d := &Data{byFrame: make(map[int][]Point), pupil: make(map[int]pupilSum)}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		frame, ok := parseFrame(field(record, idx[colFrame]))
		if !ok {
			continue
		}
		if v, ok := meanPupil(record, idx[colPupilL], idx[colPupilR]); ok {
			p := d.pupil[frame]
			p.total += v
			p.n++
			d.pupil[frame] = p
		}

		x, okX := parseCoord(field(record, idx[colX]))
		y, okY := parseCoord(field(record, idx[colY]))
		if !okX || !okY {
			continue
		}
		d.byFrame[frame] = append(d.byFrame[frame], Point{X: x, Y: y})
		d.samples++
	}
	return d, nil
}

func meanPupil(record []string, left, right int) (float64, bool) {
	var sum float64
	n := 0
	for _, i := range []int{left, right} {
		if i < 0 {
			continue
		}
		if v, ok := parseCoord(field(record, i)); ok && v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseFrame(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0
	}
	// some exports write the frame index as a float
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 {
		return 0, false
	}
	return int(f), true
}

func parseCoord(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

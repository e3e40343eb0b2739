package gaze

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "timestamp\tframe_idx\tgaze_pos_vid_x\tgaze_pos_vid_y\n" +
	"0.0\t0\t100.5\t200\n" +
	"0.1\t0\t101\t201\n" +
	"0.2\t1\tnan\t10\n" +
	"0.3\t1\t\t\n" +
	"0.4\t2\t50\tNaN\n" +
	"0.5\t3.0\t7\t8\n" +
	"0.6\t\t1\t1\n"

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, []Point{{100.5, 200}, {101, 201}}, d.Points(0))
	assert.Empty(t, d.Points(1))
	assert.Empty(t, d.Points(2))
	assert.Equal(t, []Point{{7, 8}}, d.Points(3))
	assert.Equal(t, 2, d.Frames())
	assert.Equal(t, 3, d.Samples())
}

func TestParsePupil(t *testing.T) {
	const withPupil = "frame_idx\tgaze_pos_vid_x\tgaze_pos_vid_y\tpup_diam_l\tpup_diam_r\n" +
		"0\t1\t1\t3\t5\n" +
		"0\tnan\tnan\t4\t\n" +
		"2\t1\t1\tnan\t0\n" +
		"3\t1\t1\t\t6\n"
	d, err := Parse(strings.NewReader(withPupil))
	require.NoError(t, err)
	require.True(t, d.HasPupil())

	v, ok := d.Pupil(0)
	require.True(t, ok, "pupil counts even where the gaze position is missing")
	assert.InDelta(t, 4.0, v, 1e-9)
	_, ok = d.Pupil(2)
	assert.False(t, ok)

	series := d.PupilSeries(5)
	require.Len(t, series, 5)
	assert.InDelta(t, 4.0, series[0], 1e-9)
	assert.True(t, math.IsNaN(series[1]))
	assert.True(t, math.IsNaN(series[2]))
	assert.InDelta(t, 6.0, series[3], 1e-9)
	assert.True(t, math.IsNaN(series[4]))

	plain, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.False(t, plain.HasPupil())
	assert.Nil(t, plain.PupilSeries(10))
}

func TestParseMissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("frame_idx\tgaze_pos_vid_x\n0\t1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gaze_pos_vid_y")

	_, err = Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNilData(t *testing.T) {
	var d *Data
	assert.Nil(t, d.Points(0))
	assert.Zero(t, d.Frames())
	assert.Zero(t, d.Samples())
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()

	_, err := Locate(dir)
	assert.ErrorIs(t, err, ErrNotFound)

	local := filepath.Join(dir, LocalFileName)
	require.NoError(t, os.WriteFile(local, []byte(sample), 0o644))
	p, err := Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, local, p)

	main := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(main, []byte(sample), 0o644))
	p, err = Locate(dir)
	require.NoError(t, err)
	assert.Equal(t, main, p)

	d, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Samples())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

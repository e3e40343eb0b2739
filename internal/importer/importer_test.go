package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/logger"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tobii Pro Glasses 3_P01_rec1", "Tobii Pro Glasses 3_P01_rec1"},
		{`a/b\c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"trailing. . ", "trailing"},
		{"tab\there", "tabhere"},
		{"CON", "_CON"},
		{"con.txt", "_con.txt"},
		{"///", "recording"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), tt.in)
	}
}

func TestDirName(t *testing.T) {
	assert.Equal(t, "Pupil Neon_P07_2024-01-01", DirName("Pupil Neon", "P07", "2024-01-01"))
	assert.Equal(t, "Pupil Neon_rec", DirName("Pupil Neon", "", "rec"))
	assert.Equal(t, "Generic_P1_ab", DirName("Generic", "P1", "a/b"))
}

func TestUniqueDir(t *testing.T) {
	parent := t.TempDir()
	assert.Equal(t, "x", UniqueDir(parent, "x"))

	require.NoError(t, os.Mkdir(filepath.Join(parent, "x"), 0o755))
	assert.Equal(t, "x_1", UniqueDir(parent, "x"))

	require.NoError(t, os.Mkdir(filepath.Join(parent, "x_1"), 0o755))
	assert.Equal(t, "x_2", UniqueDir(parent, "x"))
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

type fakeTranscoder struct {
	calls int
	err   error
}

func (f *fakeTranscoder) Transcode(_ context.Context, src, dst string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("mp4 of "+filepath.Base(src)), 0o644)
}

func TestScan(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, filepath.Join(src, "rec10"), map[string]string{"worldCamera.mp4": "v", "gazeData.tsv": "g"})
	writeFiles(t, filepath.Join(src, "rec2"), map[string]string{
		"worldCamera.mkv": "v",
		"gazeData.tsv":    "g",
		"metadata.csv":    "participant_id,condition,series_title\nP02,A,S\n",
	})
	writeFiles(t, filepath.Join(src, "video-only"), map[string]string{"worldCamera.mp4": "v"})
	writeFiles(t, filepath.Join(src, "rec2", "nested"), map[string]string{"worldCamera.mp4": "v", "gazeData.tsv": "g"})

	found, err := Scan(src)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "rec2", found[0].Name)
	assert.Equal(t, "P02", found[0].Participant)
	assert.Equal(t, "worldCamera.mkv", filepath.Base(found[0].Video))
	assert.Equal(t, "rec10", found[1].Name)
	assert.Empty(t, found[1].Participant)
}

func TestScanSourceItself(t *testing.T) {
	src := filepath.Join(t.TempDir(), "single")
	writeFiles(t, src, map[string]string{"worldCamera.mp4": "v", "gazeData_local.tsv": "g"})

	found, err := Scan(src)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "single", found[0].Name)
}

func TestImport(t *testing.T) {
	src, project := t.TempDir(), t.TempDir()
	writeFiles(t, filepath.Join(src, "rec1"), map[string]string{
		"worldCamera.mp4": "video",
		"gazeData.tsv":    "gaze",
		"events.csv":      "events",
		"unrelated.bin":   "x",
	})
	writeFiles(t, filepath.Join(src, "rec2"), map[string]string{
		"worldCamera.avi": "video",
		"gazeData.tsv":    "gaze",
		"metadata.csv":    "participant_id\nP9\n",
	})
	require.NoError(t, os.Mkdir(filepath.Join(project, "Generic_rec1"), 0o755))

	tr := &fakeTranscoder{}
	var steps []int
	n, err := New(tr, logger.Nop()).Import(context.Background(), src, project, "Generic", func(done, total int, _ string) {
		assert.Equal(t, 2, total)
		steps = append(steps, done)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{0, 1, 2}, steps)
	assert.Equal(t, 1, tr.calls)

	r1 := filepath.Join(project, "Generic_rec1_1")
	assert.FileExists(t, filepath.Join(r1, "worldCamera.mp4"))
	assert.FileExists(t, filepath.Join(r1, "gazeData.tsv"))
	assert.FileExists(t, filepath.Join(r1, "events.csv"))
	assert.NoFileExists(t, filepath.Join(r1, "unrelated.bin"))

	r2 := filepath.Join(project, "Generic_P9_rec2")
	video, err := os.ReadFile(filepath.Join(r2, "worldCamera.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "mp4 of worldCamera.avi", string(video))
	assert.FileExists(t, filepath.Join(r2, "metadata.csv"))
}

func TestImportAggregatesFailures(t *testing.T) {
	src, project := t.TempDir(), t.TempDir()
	writeFiles(t, filepath.Join(src, "ok"), map[string]string{"worldCamera.mp4": "v", "gazeData.tsv": "g"})
	writeFiles(t, filepath.Join(src, "broken"), map[string]string{"worldCamera.mov": "v", "gazeData.tsv": "g"})

	tr := &fakeTranscoder{err: errors.New("codec missing")}
	n, err := New(tr, logger.Nop()).Import(context.Background(), src, project, "Generic", nil)
	assert.Equal(t, 1, n)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	assert.Contains(t, merr.Errors[0].Error(), "codec missing")
	assert.NoDirExists(t, filepath.Join(project, "Generic_broken"), "partial import removed")
}

func TestImportNothingFound(t *testing.T) {
	_, err := New(nil, logger.Nop()).Import(context.Background(), t.TempDir(), t.TempDir(), "Generic", nil)
	assert.ErrorIs(t, err, ErrNoRecordings)
}

func TestImportCancelled(t *testing.T) {
	src, project := t.TempDir(), t.TempDir()
	writeFiles(t, filepath.Join(src, "a"), map[string]string{"worldCamera.mp4": "v", "gazeData.tsv": "g"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := New(nil, logger.Nop()).Import(ctx, src, project, "Generic", nil)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
}

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/annotation"
	"zarafe/internal/logger"
	"zarafe/internal/metadata"
	"zarafe/internal/project"
	"zarafe/internal/recording"
)

func testConfig(t *testing.T) *project.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &project.Config{
		Project: project.Info{Name: "Study"},
		EventTypes: []project.EventType{
			{Name: "View {target}", AppliesTo: project.AppliesToTargets},
			{Name: "Accuracy Test", AppliesTo: project.AppliesToValidator},
		},
		Targets:    []project.Target{{ID: "M1"}, {ID: "M2"}},
		Conditions: []string{"A", "B"},
	}
	require.NoError(t, cfg.Save(dir))
	loaded, err := project.Load(cfg.Path())
	require.NoError(t, err)
	return loaded
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newRecording(t *testing.T) recording.Recording {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tobii_P01_rec1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeFile(t, dir, recording.VideoFileName, "")
	return recording.New(dir)
}

func openSession(t *testing.T, rec recording.Recording) (*Session, error) {
	t.Helper()
	return Open(rec, testConfig(t), Options{Log: logger.Nop()})
}

func TestOpenEmptyRecording(t *testing.T) {
	rec := newRecording(t)
	s, err := openSession(t, rec)
	require.NoError(t, err)

	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID))
	assert.Zero(t, s.Events.Len())
	assert.Nil(t, s.Gaze)
	assert.Equal(t, "tobii_P01_rec1", s.Metadata.Get(metadata.FileName))
	assert.False(t, s.Dirty())
}

func TestOpenLoadsEverything(t *testing.T) {
	rec := newRecording(t)
	writeFile(t, rec.Dir, "gazeData.tsv", "frame_idx\tgaze_pos_vid_x\tgaze_pos_vid_y\n3\t10\t20\n")
	writeFile(t, rec.Dir, recording.MetadataFileName, "participant_id,condition,series_title,monitor_1_image\nP01,A,S1,a.png\n")
	writeFile(t, rec.Dir, recording.EventsFileName,
		"participant_id,file_name,event_name,start_frame,end_frame,duration\nP01,x,View M1,10,20,N.A.\n")
	writeFile(t, rec.Dir, recording.MarkerFileName, "start_frame\tend_frame\n0\t5\n")

	s, err := openSession(t, rec)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Gaze.Samples())
	assert.Equal(t, "P01", s.Metadata.Get(metadata.ParticipantID))
	assert.Equal(t, "a.png", s.Metadata.Get("M1"))
	assert.Equal(t, []annotation.Event{
		{Name: "View M1", Start: 10, End: 20},
		{Name: "Accuracy Test 1", Start: 0, End: 5},
	}, s.Events.Events())
	assert.True(t, s.Events.CanUndo(), "loading events leaves an undo checkpoint")
	assert.False(t, s.Dirty())
}

func TestOpenCollectsErrors(t *testing.T) {
	rec := newRecording(t)
	writeFile(t, rec.Dir, "gazeData.tsv", "frame_idx\n1\n")
	writeFile(t, rec.Dir, recording.EventsFileName, "event_name,start_frame,end_frame\nA,bad,2\n")
	writeFile(t, rec.Dir, recording.MarkerFileName, "start_frame\tend_frame\n1\t2\n")

	s, err := openSession(t, rec)
	require.Error(t, err)
	require.NotNil(t, s)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 2)
	assert.Equal(t, 1, s.Events.Len(), "marker intervals still load")
}

func TestDirtyTracking(t *testing.T) {
	s, err := openSession(t, newRecording(t))
	require.NoError(t, err)

	require.NoError(t, s.Create("View M1"))
	assert.True(t, s.Dirty())

	require.NoError(t, s.MarkStart(5))
	require.NoError(t, s.Undo())
	assert.True(t, s.Dirty(), "events remain after undo")

	require.NoError(t, s.Undo())
	assert.False(t, s.Dirty(), "undo back to an empty list")

	assert.ErrorIs(t, s.MarkEnd(3), annotation.ErrNoSelection)
	assert.False(t, s.Dirty())

	s.SetMetadata(metadata.FileName, s.Metadata.Get(metadata.FileName))
	assert.False(t, s.Dirty(), "unchanged value")
	s.SetMetadata(metadata.Condition, "B")
	assert.True(t, s.Dirty())
}

func fillMetadata(s *Session) {
	s.SetMetadata(metadata.ParticipantID, "P01")
	s.SetMetadata(metadata.Condition, "A")
	s.SetMetadata(metadata.SeriesTitle, "S1")
}

func TestSaveWritesAllFiles(t *testing.T) {
	rec := newRecording(t)
	s, err := openSession(t, rec)
	require.NoError(t, err)
	fillMetadata(s)

	require.NoError(t, s.Create("View M2"))
	require.NoError(t, s.MarkStart(30))
	require.NoError(t, s.MarkEnd(59))
	require.NoError(t, s.Create("Accuracy Test 1"))
	require.NoError(t, s.MarkStart(0))
	require.NoError(t, s.MarkEnd(10))

	res, err := s.Save(30)
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Events: 1, Markers: 1, Complete: true}, res)
	assert.False(t, s.Dirty())

	events, err := os.ReadFile(rec.EventsPath())
	require.NoError(t, err)
	assert.Equal(t, "participant_id,file_name,event_name,start_frame,end_frame,duration\n"+
		"P01,tobii_P01_rec1,View M2,30,59,1.0\n", string(events))

	markers, err := os.ReadFile(rec.MarkerPath())
	require.NoError(t, err)
	assert.Equal(t, "start_frame\tend_frame\n0\t10\n", string(markers))

	meta, err := os.ReadFile(rec.MetadataPath())
	require.NoError(t, err)
	assert.Equal(t, "participant_id,condition,series_title,M1,M2\nP01,A,S1,,\n", string(meta))

	leftovers, err := filepath.Glob(filepath.Join(rec.Dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	reopened, err := Open(rec, s.Config, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, s.Events.Events(), reopened.Events.Events())
}

func TestSaveRejectsIncomplete(t *testing.T) {
	rec := newRecording(t)
	s, err := openSession(t, rec)
	require.NoError(t, err)

	require.NoError(t, s.Create("View M1"))
	_, err = s.Save(30)
	assert.ErrorIs(t, err, annotation.ErrIncompleteMetadata)

	fillMetadata(s)
	_, err = s.Save(30)
	assert.ErrorIs(t, err, annotation.ErrIncompleteEvent)
	assert.True(t, s.Dirty())

	_, statErr := os.Stat(rec.EventsPath())
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestSaveIncompleteMarkerIsReported(t *testing.T) {
	s, err := openSession(t, newRecording(t))
	require.NoError(t, err)
	fillMetadata(s)
	require.NoError(t, s.Create("Accuracy Test 1"))

	res, err := s.Save(0)
	require.NoError(t, err)
	assert.False(t, res.Complete)
	assert.Equal(t, 1, res.Markers)
}

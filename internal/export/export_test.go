package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/recording"
)

func rec(t *testing.T, root, name, events string) recording.Recording {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if events != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, recording.EventsFileName), []byte(events), 0o644))
	}
	return recording.New(dir)
}

func TestWriteMergesRecordings(t *testing.T) {
	root := t.TempDir()
	recs := []recording.Recording{
		rec(t, root, "r1", "participant_id,file_name,event_name,start_frame,end_frame,duration\n"+
			"P01,r1,View M1,1,30,1.0\nP01,r1,View M2,40,50,0.4\n"),
		rec(t, root, "r2", ""),
		rec(t, root, "r3", "participant_id,file_name,condition,series_title,monitor_id,event_type,start_frame,end_frame,duration\n"+
			"P03,old,A,S,M4,approach,5,9,N.A.\nP03,old,A,S,M1,N.A.,N.A.,N.A.,N.A.\n"),
		rec(t, root, "r4", "participant_id,file_name,event_name,start_frame,end_frame,duration\n"),
	}

	var buf bytes.Buffer
	sum, err := Write(&buf, recs)
	require.NoError(t, err)
	assert.Equal(t, Summary{Recordings: 2, Rows: 3}, sum)
	assert.Equal(t, "participant_id,file_name,event_name,start_frame,end_frame,duration\n"+
		"P01,r1,View M1,1,30,1.0\n"+
		"P01,r1,View M2,40,50,0.4\n"+
		"P03,r3,Approach M4,5,9,N.A.\n", buf.String())
}

func TestSummarizeReportsBrokenRecordings(t *testing.T) {
	root := t.TempDir()
	recs := []recording.Recording{
		rec(t, root, "good", "participant_id,file_name,event_name,start_frame,end_frame,duration\nP,good,E,1,2,N.A.\n"),
		rec(t, root, "bad", "event_name,start_frame\n\"unterminated,1\n"),
	}

	sum, err := Summarize(root, recs)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 1)
	assert.Contains(t, err.Error(), "bad")

	assert.Equal(t, 1, sum.Rows)
	data, rerr := os.ReadFile(filepath.Join(root, SummaryFileName))
	require.NoError(t, rerr)
	assert.Contains(t, string(data), "P,good,E,1,2,N.A.")
}

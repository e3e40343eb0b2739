package annotation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMeta map[string]string

func (f fakeMeta) Get(field string) string { return f[field] }
func (f fakeMeta) IsComplete() bool {
	return f["participant_id"] != "" && f["condition"] != "" && f["series_title"] != ""
}

type prefixClassifier string

func (p prefixClassifier) IsMarkerInterval(name string) bool {
	return p != "" && strings.Contains(name, string(p))
}

var completeMeta = fakeMeta{
	"participant_id": "P01",
	"condition":      "A",
	"series_title":   "S1",
	"file_name":      "rec_01",
}

func TestWriteCSVSortsAndSkipsMarkers(t *testing.T) {
	events := []Event{
		{Name: "View M1", Start: 40, End: 69},
		{Name: "Accuracy Test 1", Start: 0, End: 10},
		{Name: "Approach M1", Start: 10, End: 39},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, events, completeMeta, prefixClassifier("Accuracy Test"), 30))

	want := "participant_id,file_name,event_name,start_frame,end_frame,duration\n" +
		"P01,rec_01,Approach M1,10,39,1.0\n" +
		"P01,rec_01,View M1,40,69,1.0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVUnknownFPS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Event{{Name: "A", Start: 1, End: 2}}, completeMeta, prefixClassifier(""), 0))
	assert.Contains(t, buf.String(), "P01,rec_01,A,1,2,N.A.\n")
}

func TestWriteCSVValidation(t *testing.T) {
	var buf bytes.Buffer

	err := WriteCSV(&buf, nil, fakeMeta{"participant_id": "P01"}, prefixClassifier(""), 30)
	assert.ErrorIs(t, err, ErrIncompleteMetadata)

	err = WriteCSV(&buf, []Event{{Name: "A", Start: 1, End: Unset}}, completeMeta, prefixClassifier(""), 30)
	assert.ErrorIs(t, err, ErrIncompleteEvent)
	assert.Contains(t, err.Error(), `"A"`)

	err = WriteCSV(&buf, []Event{NewEvent("Accuracy Test 1")}, completeMeta, prefixClassifier("Accuracy Test"), 30)
	assert.NoError(t, err, "incomplete marker events do not block events.csv")
}

func TestReadCSVUniversal(t *testing.T) {
	in := "participant_id,file_name,event_name,start_frame,end_frame,duration\n" +
		"P01,rec,Approach M1,10,39,1.0\n" +
		"P01,rec,,1,2,N.A.\n" +
		"P01,rec,View M1,N.A.,-1,N.A.\n"

	events, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Name: "Approach M1", Start: 10, End: 39},
		{Name: "View M1", Start: Unset, End: Unset},
	}, events)
}

func TestReadCSVLegacyMonitorFormat(t *testing.T) {
	in := "participant_id,file_name,condition,series_title,monitor_id,event_type,start_frame,end_frame,duration\n" +
		"P01,rec,A,S,M1,approach,5,9,N.A.\n" +
		"P01,rec,A,S,M2,view,12,30,N.A.\n" +
		"P01,rec,A,S,M3,N.A.,N.A.,N.A.,N.A.\n" +
		"P01,rec,A,S,M4,dance,1,2,N.A.\n"

	events, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Name: "Approach M1", Start: 5, End: 9},
		{Name: "View M2", Start: 12, End: 30},
	}, events)
}

func TestReadCSVUnknownOrEmpty(t *testing.T) {
	events, err := ReadCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReadCSVBadFrame(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("event_name,start_frame,end_frame\nA,x,2\n"))
	assert.Error(t, err)
}

func TestCSVRoundTripKeepsEvents(t *testing.T) {
	events := []Event{{Name: "B", Start: 50, End: 60}, {Name: "A", Start: 1, End: 9}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, events, completeMeta, prefixClassifier(""), 25))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []Event{{Name: "A", Start: 1, End: 9}, {Name: "B", Start: 50, End: 60}}, got)
}

func TestMarkerIntervals(t *testing.T) {
	events := []Event{
		{Name: "Accuracy Test 1", Start: 0, End: 100},
		{Name: "View M1", Start: 1, End: 2},
		{Name: "Accuracy Test 2", Start: 500, End: Unset},
		{Name: "Accuracy Test 3", Start: 900, End: 1000},
	}
	markers := MarkerEvents(events, prefixClassifier("Accuracy Test"))
	require.Len(t, markers, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteMarkerIntervals(&buf, markers))
	assert.Equal(t, "start_frame\tend_frame\n0\t100\n900\t1000\n", buf.String())

	loaded, err := ReadMarkerIntervals(&buf, "Accuracy Test")
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Name: "Accuracy Test 1", Start: 0, End: 100},
		{Name: "Accuracy Test 2", Start: 900, End: 1000},
	}, loaded)
}

func TestReadMarkerIntervalsWithoutMarkerType(t *testing.T) {
	events, err := ReadMarkerIntervals(strings.NewReader("start_frame\tend_frame\n1\t2\n"), "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

package annotation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const notAvailable = "N.A."

// EventsHeader is the column layout of events.csv.
var EventsHeader = []string{"participant_id", "file_name", "event_name", "start_frame", "end_frame", "duration"}

// Classifier tells which events belong in markerInterval.tsv rather than events.csv.
type Classifier interface {
	IsMarkerInterval(eventName string) bool
}

// Metadata is the session metadata needed to fill the leading events.csv columns.
type Metadata interface {
	Get(field string) string
	IsComplete() bool
}

// WriteCSV writes the non-marker events as events.csv, ordered by start frame.
// Every written event must have both bounds, and the metadata must be complete.
func WriteCSV(w io.Writer, events []Event, meta Metadata, cls Classifier, fps float64) error {
	if !meta.IsComplete() {
		return fmt.Errorf("%w: fill in all metadata fields before saving", ErrIncompleteMetadata)
	}

	rows := make([]Event, 0, len(events))
	for _, ev := range events {
		if cls.IsMarkerInterval(ev.Name) {
			continue
		}
		if !ev.Complete() {
			return fmt.Errorf("%w: %q", ErrIncompleteEvent, ev.Name)
		}
		rows = append(rows, ev)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Start < rows[j].Start })

	cw := csv.NewWriter(w)
	if err := cw.Write(EventsHeader); err != nil {
		return err
	}
	participant, fileName := meta.Get("participant_id"), meta.Get("file_name")
	for _, ev := range rows {
		duration := notAvailable
		if d, ok := Duration(ev.Start, ev.End, fps); ok {
			duration = strconv.FormatFloat(d, 'f', 1, 64)
		}
		record := []string{
			participant,
			fileName,
			ev.Name,
			strconv.Itoa(ev.Start),
			strconv.Itoa(ev.End),
			duration,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses events.csv. Besides the current layout it understands the older per-monitor layout
// (monitor_id + event_type columns), rebuilding "Approach <id>" and "View <id>" names from it.
// Files in neither layout yield no events.
func ReadCSV(r io.Reader) ([]Event, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)

	_, universal := col["event_name"]
	_, hasMonitor := col["monitor_id"]
	_, hasType := col["event_type"]
	legacy := !universal && hasMonitor && hasType
	if !universal && !legacy {
		return nil, nil
	}

	startCol, endCol := "start_frame", "end_frame"
	if _, ok := col[startCol]; !ok {
		startCol, endCol = "start_time", "end_time"
	}

	var events []Event
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		var name string
		if universal {
			name = get("event_name")
		} else {
			name = legacyName(get("event_type"), get("monitor_id"))
		}
		if name == "" {
			continue
		}

		start, err := parseFrame(get(startCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: start: %w", line, err)
		}
		end, err := parseFrame(get(endCol))
		if err != nil {
			return nil, fmt.Errorf("line %d: end: %w", line, err)
		}
		events = append(events, Event{Name: name, Start: start, End: end})
	}
	return events, nil
}

func legacyName(eventType, monitorID string) string {
	if eventType == "" || eventType == notAvailable || monitorID == "" {
		return ""
	}
	switch eventType {
	case "approach":
		return "Approach " + monitorID
	case "view":
		return "View " + monitorID
	default:
		return ""
	}
}

func parseFrame(s string) (int, error) {
	switch s {
	case "", "-1", notAvailable:
		return Unset, nil
	}
	f, err := strconv.Atoi(s)
	if err != nil {
		return Unset, fmt.Errorf("invalid frame %q", s)
	}
	return f, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return col
}

// MarkerEvents filters the events that are persisted as marker intervals.
func MarkerEvents(events []Event, cls Classifier) []Event {
	var out []Event
	for _, ev := range events {
		if cls.IsMarkerInterval(ev.Name) {
			out = append(out, ev)
		}
	}
	return out
}

// WriteMarkerIntervals writes markerInterval.tsv. Only complete intervals are written.
func WriteMarkerIntervals(w io.Writer, markers []Event) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write([]string{"start_frame", "end_frame"}); err != nil {
		return err
	}
	for _, ev := range markers {
		if !ev.Complete() {
			continue
		}
		if err := cw.Write([]string{strconv.Itoa(ev.Start), strconv.Itoa(ev.End)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMarkerIntervals parses markerInterval.tsv into events named "<markerName> <n>", n counting from 1.
// Without a marker event type in the project nothing is loaded.
func ReadMarkerIntervals(r io.Reader, markerName string) ([]Event, error) {
	if markerName == "" {
		return nil, nil
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)

	var events []Event
	for n := 1; ; n++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("interval %d: %w", n, err)
		}

		bound := func(name string) (int, error) {
			i, ok := col[name]
			if !ok || i >= len(record) || strings.TrimSpace(record[i]) == "" {
				return 0, nil
			}
			return strconv.Atoi(strings.TrimSpace(record[i]))
		}
		start, err := bound("start_frame")
		if err != nil {
			return nil, fmt.Errorf("interval %d: start: %w", n, err)
		}
		end, err := bound("end_frame")
		if err != nil {
			return nil, fmt.Errorf("interval %d: end: %w", n, err)
		}
		events = append(events, Event{Name: fmt.Sprintf("%s %d", markerName, n), Start: start, End: end})
	}
	return events, nil
}

// Package export merges the per-recording events.csv files of a project into one table.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"zarafe/internal/annotation"
	"zarafe/internal/recording"
)

const SummaryFileName = "all_events.csv"

// Summary reports what Summarize wrote.
type Summary struct {
	Path       string
	Recordings int
	Rows       int
}

// Summarize writes <projectDir>/all_events.csv. Recordings that cannot be read are skipped and
// returned together in the error.
func Summarize(projectDir string, recs []recording.Recording) (Summary, error) {
	var buf bytes.Buffer
	sum, err := Write(&buf, recs)
	if sum.Rows == 0 && err != nil {
		return sum, err
	}

	sum.Path = filepath.Join(projectDir, SummaryFileName)
	if werr := os.WriteFile(sum.Path, buf.Bytes(), 0o644); werr != nil {
		return sum, fmt.Errorf("write summary: %w", werr)
	}
	return sum, err
}

// Write streams the merged table to w using the events.csv header.
func Write(w io.Writer, recs []recording.Recording) (Summary, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(annotation.EventsHeader); err != nil {
		return Summary{}, err
	}

	var (
		sum    Summary
		result *multierror.Error
	)
	for _, rec := range recs {
		if !rec.HasEvents() {
			continue
		}
		rows, err := recordingRows(rec)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rec.Name, err))
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if err := cw.WriteAll(rows); err != nil {
			return sum, err
		}
		sum.Recordings++
		sum.Rows += len(rows)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return sum, err
	}
	return sum, result.ErrorOrNil()
}

func recordingRows(rec recording.Recording) ([][]string, error) {
	data, err := os.ReadFile(rec.EventsPath())
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	get := func(r []string, name string) string {
		if i, ok := col[name]; ok && i < len(r) {
			return strings.TrimSpace(r[i])
		}
		return ""
	}

	if _, ok := col["event_name"]; ok {
		rows := make([][]string, 0, len(records)-1)
		for _, r := range records[1:] {
			row := make([]string, len(annotation.EventsHeader))
			for i, name := range annotation.EventsHeader {
				row[i] = get(r, name)
			}
			if row[1] == "" {
				row[1] = rec.Name
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	// older per-monitor layout: let the annotation reader rebuild event names
	events, err := annotation.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	participant := get(records[1], "participant_id")
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		if !ev.Complete() {
			continue
		}
		rows = append(rows, []string{
			participant,
			rec.Name,
			ev.Name,
			strconv.Itoa(ev.Start),
			strconv.Itoa(ev.End),
			"N.A.",
		})
	}
	return rows, nil
}

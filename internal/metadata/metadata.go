// Package metadata keeps the per-recording session fields stored in metadata.csv.
package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	ParticipantID = "participant_id"
	Condition     = "condition"
	SeriesTitle   = "series_title"
	FileName      = "file_name"
)

// Required lists the fields that must be filled before events can be saved.
var Required = []string{ParticipantID, Condition, SeriesTitle}

// Metadata is safe for concurrent use. Besides the fixed fields it carries one value per
// project target id.
type Metadata struct {
	mu      sync.RWMutex
	values  map[string]string
	targets []string
}

func New(targetIDs []string) *Metadata {
	m := &Metadata{
		values:  make(map[string]string, len(Required)+1+len(targetIDs)),
		targets: append([]string(nil), targetIDs...),
	}
	m.Reset()
	return m
}

// Reset clears every value while keeping the target set.
func (m *Metadata) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.values {
		delete(m.values, k)
	}
	for _, f := range m.fields() {
		m.values[f] = ""
	}
	m.values[FileName] = ""
}

func (m *Metadata) Set(field, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[field] = value
}

func (m *Metadata) Get(field string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[field]
}

func (m *Metadata) SetFileName(name string) {
	m.Set(FileName, name)
}

// IsComplete reports whether all required fields are non-empty.
func (m *Metadata) IsComplete() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range Required {
		if strings.TrimSpace(m.values[f]) == "" {
			return false
		}
	}
	return true
}

// Missing returns the required fields that are still empty.
func (m *Metadata) Missing() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for _, f := range Required {
		if strings.TrimSpace(m.values[f]) == "" {
			out = append(out, f)
		}
	}
	return out
}

func (m *Metadata) Targets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.targets...)
}

// ReadCSV loads the first data row of metadata.csv. A target value is read from the column named
// after the target id, or from monitor_<n>_image for the n-th target in older files.
func (m *Metadata) ReadCSV(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read metadata header: %w", err)
	}
	row, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read metadata row: %w", err)
	}

	col := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = strings.TrimSpace(row[i])
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range Required {
		m.values[f] = col[f]
	}
	for i, id := range m.targets {
		v, ok := col[id]
		if !ok {
			v = col[fmt.Sprintf("monitor_%d_image", i+1)]
		}
		m.values[id] = v
	}
	return nil
}

// WriteCSV writes metadata.csv: the required fields followed by the target ids.
func (m *Metadata) WriteCSV(w io.Writer) error {
	m.mu.RLock()
	fields := m.fields()
	record := make([]string, len(fields))
	for i, f := range fields {
		record[i] = m.values[f]
	}
	m.mu.RUnlock()

	cw := csv.NewWriter(w)
	if err := cw.Write(fields); err != nil {
		return err
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (m *Metadata) fields() []string {
	out := make([]string, 0, len(Required)+len(m.targets))
	out = append(out, Required...)
	return append(out, m.targets...)
}

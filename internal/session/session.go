// Package session ties together everything loaded for the recording being annotated: its events,
// metadata and gaze samples, plus the unsaved-changes state.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"zarafe/internal/annotation"
	"zarafe/internal/gaze"
	"zarafe/internal/logger"
	"zarafe/internal/metadata"
	"zarafe/internal/project"
	"zarafe/internal/recording"
)

type Options struct {
	UndoDepth int
	Log       logger.Logger
}

type Session struct {
	ID        uuid.UUID
	Recording recording.Recording
	Config    *project.Config
	Events    *annotation.Manager
	Metadata  *metadata.Metadata
	Gaze      *gaze.Data

	mu    sync.Mutex
	dirty bool
	log   logger.Logger
}

// SaveResult summarises what Save wrote.
type SaveResult struct {
	Events   int
	Markers  int
	Complete bool
}

// Open loads the annotation state of rec. Missing files are skipped. Files that fail to load are
// reported together in the returned error while the session is still usable.
func Open(rec recording.Recording, cfg *project.Config, opts Options) (*Session, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	s := &Session{
		ID:        uuid.New(),
		Recording: rec,
		Config:    cfg,
		Events:    annotation.NewManager(opts.UndoDepth),
		Metadata:  metadata.New(cfg.TargetIDs()),
		log:       log,
	}
	s.Metadata.SetFileName(rec.Name)

	var result *multierror.Error

	if p, err := gaze.Locate(rec.Dir); err == nil {
		if s.Gaze, err = gaze.Load(p); err != nil {
			result = multierror.Append(result, fmt.Errorf("gaze data: %w", err))
		}
	}

	if err := readIfExists(rec.MetadataPath(), func(f *os.File) error {
		return s.Metadata.ReadCSV(f)
	}); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", recording.MetadataFileName, err))
	}

	if err := readIfExists(rec.EventsPath(), func(f *os.File) error {
		events, err := annotation.ReadCSV(f)
		if err != nil {
			return err
		}
		s.Events.Append(events...)
		s.Events.Checkpoint()
		return nil
	}); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", recording.EventsFileName, err))
	}

	if err := readIfExists(rec.MarkerPath(), func(f *os.File) error {
		markers, err := annotation.ReadMarkerIntervals(f, cfg.MarkerEventName())
		if err != nil {
			return err
		}
		s.Events.Append(markers...)
		return nil
	}); err != nil {
		result = multierror.Append(result, fmt.Errorf("%s: %w", recording.MarkerFileName, err))
	}

	fields := map[string]interface{}{
		"session":   s.ID.String(),
		"recording": rec.Name,
		"events":    s.Events.Len(),
		"gaze":      s.Gaze.Samples(),
	}
	if err := result.ErrorOrNil(); err != nil {
		fields["problems"] = len(result.Errors)
		s.log.Warning("session", "recording loaded with problems", fields)
		return s, err
	}
	s.log.Info("session", "recording loaded", fields)
	return s, nil
}

func readIfExists(path string, read func(*os.File) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return read(f)
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) MarkDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

func (s *Session) Create(name string) error {
	if err := s.Events.Create(name); err != nil {
		return err
	}
	s.MarkDirty()
	return nil
}

func (s *Session) MarkStart(frame int) error {
	if err := s.Events.MarkStart(frame); err != nil {
		return err
	}
	s.MarkDirty()
	return nil
}

func (s *Session) MarkEnd(frame int) error {
	if err := s.Events.MarkEnd(frame); err != nil {
		return err
	}
	s.MarkDirty()
	return nil
}

func (s *Session) DeleteSelected() (annotation.Event, error) {
	ev, err := s.Events.DeleteSelected()
	if err != nil {
		return ev, err
	}
	s.MarkDirty()
	return ev, nil
}

// Undo reverts the last event change. The session stays dirty only while events remain.
func (s *Session) Undo() error {
	if err := s.Events.Undo(); err != nil {
		return err
	}
	s.mu.Lock()
	s.dirty = s.Events.Len() > 0
	s.mu.Unlock()
	return nil
}

// SetMetadata updates a metadata field, marking the session dirty when the value changes.
func (s *Session) SetMetadata(field, value string) {
	if s.Metadata.Get(field) == value {
		return
	}
	s.Metadata.Set(field, value)
	s.MarkDirty()
}

// Save writes events.csv, markerInterval.tsv (when there are marker events) and metadata.csv.
// Nothing is written when the events or metadata cannot be exported.
func (s *Session) Save(fps float64) (SaveResult, error) {
	events := s.Events.Events()

	var eventsBuf bytes.Buffer
	if err := annotation.WriteCSV(&eventsBuf, events, s.Metadata, s.Config, fps); err != nil {
		return SaveResult{}, err
	}
	if err := writeAtomic(s.Recording.EventsPath(), eventsBuf.Bytes()); err != nil {
		return SaveResult{}, fmt.Errorf("write events: %w", err)
	}

	markers := annotation.MarkerEvents(events, s.Config)
	if len(markers) > 0 {
		var buf bytes.Buffer
		if err := annotation.WriteMarkerIntervals(&buf, markers); err != nil {
			return SaveResult{}, err
		}
		if err := writeAtomic(s.Recording.MarkerPath(), buf.Bytes()); err != nil {
			return SaveResult{}, fmt.Errorf("write marker intervals: %w", err)
		}
	}

	var metaBuf bytes.Buffer
	if err := s.Metadata.WriteCSV(&metaBuf); err != nil {
		return SaveResult{}, err
	}
	if err := writeAtomic(s.Recording.MetadataPath(), metaBuf.Bytes()); err != nil {
		return SaveResult{}, fmt.Errorf("write metadata: %w", err)
	}

	res := SaveResult{Events: len(events) - len(markers), Markers: len(markers), Complete: true}
	for _, ev := range events {
		if !ev.Complete() {
			res.Complete = false
			break
		}
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()

	s.log.Info("session", "annotations saved", map[string]interface{}{
		"session":   s.ID.String(),
		"recording": s.Recording.Name,
		"events":    res.Events,
		"markers":   res.Markers,
	})
	return res, nil
}

// writeAtomic replaces path with data through a temporary file in the same directory.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

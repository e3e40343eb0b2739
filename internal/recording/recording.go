// Package recording finds the recording folders of a project and names the files inside them.
package recording

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"zarafe/internal/gaze"
)

const (
	VideoFileName    = "worldCamera.mp4"
	EventsFileName   = "events.csv"
	MarkerFileName   = "markerInterval.tsv"
	MetadataFileName = "metadata.csv"
)

var ErrNoRecordings = errors.New("no recordings found")

// Recording is one prepared recording folder.
type Recording struct {
	Name string
	Dir  string
}

func New(dir string) Recording {
	return Recording{Name: filepath.Base(dir), Dir: dir}
}

func (r Recording) VideoPath() string    { return filepath.Join(r.Dir, VideoFileName) }
func (r Recording) EventsPath() string   { return filepath.Join(r.Dir, EventsFileName) }
func (r Recording) MarkerPath() string   { return filepath.Join(r.Dir, MarkerFileName) }
func (r Recording) MetadataPath() string { return filepath.Join(r.Dir, MetadataFileName) }

// GazePath returns the gaze file in use, or the default name when neither exists.
func (r Recording) GazePath() string {
	if p, err := gaze.Locate(r.Dir); err == nil {
		return p
	}
	return filepath.Join(r.Dir, gaze.FileName)
}

// HasEvents reports whether events.csv exists.
func (r Recording) HasEvents() bool {
	info, err := os.Stat(r.EventsPath())
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Discover lists the immediate subdirectories of root that contain a scene video, in natural order.
func Discover(root string) ([]Recording, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read project directory: %w", err)
	}

	var recs []Recording
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if info, err := os.Stat(filepath.Join(dir, VideoFileName)); err == nil && !info.IsDir() {
			recs = append(recs, New(dir))
		}
	}

	sort.SliceStable(recs, func(i, j int) bool { return NaturalLess(recs[i].Name, recs[j].Name) })
	return recs, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"

	"zarafe/internal/annotation"
	"zarafe/internal/eventbus"
	"zarafe/internal/logger"
	"zarafe/internal/overlay"
	"zarafe/internal/playback"
	"zarafe/internal/project"
	"zarafe/internal/recording"
	"zarafe/internal/session"
	"zarafe/internal/video"
)

var ErrNoRecording = errors.New("no recording loaded")

// FrameView is everything the video panel shows for the current frame.
type FrameView struct {
	video.Frame
	Label   string
	Info    string
	Current int
	Total   int
}

// AnnotationService edits the annotations of the loaded recording and renders its frames.
type AnnotationService struct {
	video     *video.Manager
	renderer  *video.Renderer
	bus       *eventbus.Bus
	undoDepth int
	log       logger.Logger

	mu      sync.RWMutex
	session *session.Session
}

func NewAnnotationService(vm *video.Manager, r *video.Renderer, bus *eventbus.Bus, undoDepth int, log logger.Logger) *AnnotationService {
	return &AnnotationService{
		video:     vm,
		renderer:  r,
		bus:       bus,
		undoDepth: undoDepth,
		log:       log,
	}
}

// Load opens the recording's video and annotation files. The returned warnings list annotation files
// that could not be read; the recording is still loaded in that case. err is set when the video
// itself cannot be opened, and nothing is loaded then.
func (as *AnnotationService) Load(ctx context.Context, rec recording.Recording, cfg *project.Config) (warnings, err error) {
	if cfg == nil {
		return nil, project.ErrNoProject
	}

	if err := as.video.Open(ctx, rec.VideoPath()); err != nil {
		as.Close()
		return nil, err
	}

	sess, warnings := session.Open(rec, cfg, session.Options{UndoDepth: as.undoDepth, Log: as.log})

	as.mu.Lock()
	as.session = sess
	as.mu.Unlock()

	as.publish(eventbus.Event{Type: eventbus.RecordingLoaded, Count: sess.Events.Len(), Err: warnings})
	return warnings, nil
}

// Close releases the video and drops the session without saving.
func (as *AnnotationService) Close() {
	as.video.Release()
	as.mu.Lock()
	as.session = nil
	as.mu.Unlock()
}

// Session returns the loaded session, or nil.
func (as *AnnotationService) Session() *session.Session {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.session
}

func (as *AnnotationService) Loaded() bool {
	return as.Session() != nil
}

// Dirty reports unsaved changes in the loaded recording.
func (as *AnnotationService) Dirty() bool {
	s := as.Session()
	return s != nil && s.Dirty()
}

func (as *AnnotationService) Cursor() *playback.Cursor {
	return as.video.Cursor()
}

func (as *AnnotationService) FPS() float64 {
	return as.video.FPS()
}

// VideoSize is the decoded frame size of the loaded video.
func (as *AnnotationService) VideoSize() (int, int) {
	return as.video.Size()
}

// SetConfig points the loaded session at a reloaded project config.
func (as *AnnotationService) SetConfig(cfg *project.Config) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.session != nil && cfg != nil {
		as.session.Config = cfg
	}
}

// Render decodes the frame under the cursor and draws the overlay into a boxW x boxH area.
func (as *AnnotationService) Render(boxW, boxH int) (FrameView, error) {
	s := as.Session()
	if s == nil {
		return FrameView{}, ErrNoRecording
	}

	src, err := as.video.Read()
	if err != nil {
		return FrameView{}, err
	}
	defer src.Close()

	cursor := as.video.Cursor()
	current := cursor.Current()
	events := s.Events.Events()
	scene := video.Scene{
		Current: current,
		Events:  events,
		Gaze:    overlay.At(s.Gaze, events, current).Gaze,
		Color:   s.Config.Color,
	}

	frame, err := as.renderer.Render(src, scene, boxW, boxH)
	if err != nil {
		return FrameView{}, fmt.Errorf("render frame %d: %w", current, err)
	}

	view := FrameView{
		Frame:   frame,
		Info:    overlay.FrameInfo(current, cursor.Total()),
		Current: current,
		Total:   cursor.Total(),
	}
	if frame.Active {
		view.Label = overlay.Label(frame.Event, s.Config, as.video.FPS())
	}
	return view, nil
}

// Create adds an event of the given type, or selects the existing one.
func (as *AnnotationService) Create(name string) error {
	return as.mutate(func(s *session.Session) error { return s.Create(name) })
}

// MarkStart sets the selected event's start to the current frame.
func (as *AnnotationService) MarkStart() error {
	frame := as.video.Cursor().Current()
	return as.mutate(func(s *session.Session) error { return s.MarkStart(frame) })
}

// MarkEnd sets the selected event's end to the current frame.
func (as *AnnotationService) MarkEnd() error {
	frame := as.video.Cursor().Current()
	return as.mutate(func(s *session.Session) error { return s.MarkEnd(frame) })
}

func (as *AnnotationService) DeleteSelected() error {
	return as.mutate(func(s *session.Session) error {
		_, err := s.DeleteSelected()
		return err
	})
}

func (as *AnnotationService) Undo() error {
	return as.mutate(func(s *session.Session) error { return s.Undo() })
}

// Select makes the event at index the selected one and moves the cursor to its start, or to its end
// when useEnd is set and the event has one.
func (as *AnnotationService) Select(index int, useEnd bool) bool {
	s := as.Session()
	if s == nil || !s.Events.Select(index) {
		return false
	}
	if frame, ok := s.Events.JumpTarget(index, useEnd); ok {
		as.video.Cursor().Set(frame)
	}
	return true
}

// Selected returns the selected event index.
func (as *AnnotationService) Selected() (int, bool) {
	s := as.Session()
	if s == nil {
		return -1, false
	}
	return s.Events.Selected()
}

// EventList returns the event list rows as shown to the user.
func (as *AnnotationService) EventList() []string {
	s := as.Session()
	if s == nil {
		return nil
	}
	rows := make([]string, s.Events.Len())
	for i := range rows {
		rows[i] = s.Events.DisplayText(i)
	}
	return rows
}

// Events returns a copy of the loaded recording's events.
func (as *AnnotationService) Events() []annotation.Event {
	s := as.Session()
	if s == nil {
		return nil
	}
	return s.Events.Events()
}

// PupilSeries is the per-frame pupil diameter of the loaded recording, nil when it has none.
func (as *AnnotationService) PupilSeries() []float64 {
	s := as.Session()
	if s == nil {
		return nil
	}
	return s.Gaze.PupilSeries(as.video.Cursor().Total())
}

// EventColor is the display color of an event name under the current project config.
func (as *AnnotationService) EventColor(name string) color.RGBA {
	s := as.Session()
	if s == nil || s.Config == nil {
		return color.RGBA{A: 255}
	}
	return s.Config.Color(name)
}

// SetMetadata updates one metadata field of the loaded recording.
func (as *AnnotationService) SetMetadata(field, value string) {
	if s := as.Session(); s != nil {
		s.SetMetadata(field, value)
	}
}

// Save writes the loaded recording's annotation files.
func (as *AnnotationService) Save() (session.SaveResult, error) {
	s := as.Session()
	if s == nil {
		return session.SaveResult{}, ErrNoRecording
	}

	res, err := s.Save(as.video.FPS())
	if err != nil {
		return res, err
	}

	as.publish(eventbus.Event{
		Type:      eventbus.SessionSaved,
		Recording: s.Recording.Dir,
		SessionID: s.ID,
		Count:     res.Events + res.Markers,
		Complete:  res.Complete,
	})
	return res, nil
}

func (as *AnnotationService) mutate(fn func(*session.Session) error) error {
	s := as.Session()
	if s == nil {
		return ErrNoRecording
	}
	if err := fn(s); err != nil {
		if !errors.Is(err, annotation.ErrNoSelection) {
			as.log.Debug("AnnotationService", "edit rejected", map[string]interface{}{"error": err.Error()})
		}
		return err
	}
	as.publish(eventbus.Event{Type: eventbus.EventsChanged, Recording: s.Recording.Dir, SessionID: s.ID, Count: s.Events.Len()})
	return nil
}

func (as *AnnotationService) publish(ev eventbus.Event) {
	if as.bus == nil {
		return
	}
	if s := as.Session(); s != nil && ev.Recording == "" {
		ev.Recording = s.Recording.Dir
		ev.SessionID = s.ID
	}
	as.bus.Publish(ev)
}

package controllers

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sync"
	"time"

	"zarafe/internal/annotation"
	"zarafe/internal/eventbus"
	"zarafe/internal/importer"
	"zarafe/internal/logger"
	"zarafe/internal/metadata"
	"zarafe/internal/playback"
	"zarafe/internal/project"
	"zarafe/internal/services"
	"zarafe/internal/settings"
	"zarafe/internal/views"
	"zarafe/internal/views/components"

	"fyne.io/fyne/v2"
)

const loadTimeout = 30 * time.Second

var labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// MainController coordinates the project and annotation services with the main view.
type MainController struct {
	projects    *services.ProjectService
	annotations *services.AnnotationService
	bus         *eventbus.Bus
	settings    *settings.Settings
	logger      logger.Logger

	view   *views.MainView
	window fyne.Window

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	playCancel  context.CancelFunc
	watchCancel context.CancelFunc
	boxW, boxH  int
	loading     bool

	renderMu sync.Mutex
	handlers []eventbus.EventHandler
}

func NewMainController(
	ctx context.Context,
	projects *services.ProjectService,
	annotations *services.AnnotationService,
	bus *eventbus.Bus,
	cfg *settings.Settings,
	log logger.Logger,
) *MainController {
	ctx, cancel := context.WithCancel(ctx)
	return &MainController{
		projects:    projects,
		annotations: annotations,
		bus:         bus,
		settings:    cfg,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetMainView connects the view's handlers to the controller.
func (mc *MainController) SetMainView(view *views.MainView) {
	mc.view = view

	view.SetOpenProjectHandler(mc.handleOpenProject)
	view.SetNewProjectHandler(mc.handleNewProject)
	view.SetEditProjectHandler(mc.handleEditProject)
	view.SetImportHandler(mc.handleImport)
	view.SetExportHandler(mc.handleExport)
	view.SetRecordingHandler(mc.handleSelectRecording)
	view.SetPrevRecordingHandler(func() { mc.handleStepRecording(-1) })
	view.SetNextRecordingHandler(func() { mc.handleStepRecording(1) })

	view.SetPlayHandler(mc.handleTogglePlay)
	view.SetStepHandler(mc.handleStep)
	view.SetSeekHandler(mc.handleSeek)
	view.SetResizeHandler(mc.handleResize)

	view.SetMetadataHandler(mc.handleMetadataChange)
	view.SetCreateEventHandler(mc.handleCreateEvent)
	view.SetMarkStartHandler(func() { mc.handleEdit("mark start", mc.annotations.MarkStart) })
	view.SetMarkEndHandler(func() { mc.handleEdit("mark end", mc.annotations.MarkEnd) })
	view.SetDeleteEventHandler(func() { mc.handleEdit("delete event", mc.annotations.DeleteSelected) })
	view.SetUndoHandler(func() { mc.handleEdit("undo", mc.annotations.Undo) })
	view.SetSaveHandler(func() { mc.save(nil) })
	view.SetEventSelectHandler(mc.handleSelectEvent)
	view.SetAboutHandler(mc.handleAbout)

	view.SetupMenu(AppTitle, mc.handleOpenProject, mc.handleEditProject, mc.handleImport, mc.handleExport)

	mc.subscribe()
}

func (mc *MainController) SetWindow(window fyne.Window) {
	mc.window = window
}

func (mc *MainController) subscribe() {
	if mc.bus == nil {
		return
	}
	on := func(t eventbus.EventType, fn func(eventbus.Event)) {
		h := eventbus.HandlerFunc(fn)
		mc.bus.Subscribe(t, h)
		mc.handlers = append(mc.handlers, h)
	}

	on(eventbus.EventsChanged, func(eventbus.Event) {
		mc.refreshEvents()
		mc.view.SetPupilEvents(mc.annotations.Events())
		mc.renderFrame()
	})
	on(eventbus.RecordingLoaded, func(ev eventbus.Event) {
		mc.logger.Debug("MainController", "recording loaded", map[string]interface{}{
			"recording": ev.Recording,
			"events":    ev.Count,
		})
	})
	on(eventbus.SessionSaved, func(ev eventbus.Event) {
		mc.refreshRecordings()
		mc.view.UpdateStatus(fmt.Sprintf("Saved %d events", ev.Count))
	})
	on(eventbus.ConfigReloaded, func(eventbus.Event) {
		cfg := mc.projects.Config()
		if cfg == nil {
			return
		}
		mc.view.SetProject(cfg.ProjectName(), cfg.EventNames(), cfg.ConditionOptions())
		mc.view.SetPupilEvents(mc.annotations.Events())
		mc.renderFrame()
		mc.view.UpdateStatus("Project configuration reloaded")
	})
}

// AppTitle is shown in the window title and the about dialog.
const AppTitle = "Zarafe"

// Start opens the last project, or asks for one.
func (mc *MainController) Start() {
	if last := mc.settings.State.LastProject; last != "" {
		if _, err := os.Stat(last); err == nil {
			mc.openProject(last)
			return
		}
	}
	mc.handleOpenProject()
}

// Project handling

func (mc *MainController) handleOpenProject() {
	mc.guardUnsaved(func() {
		ctx, cancel := context.WithTimeout(mc.ctx, 5*time.Second)
		defer cancel()

		recent, err := mc.projects.Recent(ctx)
		if err != nil {
			mc.logger.Warning("MainController", "could not list recent projects", map[string]interface{}{"error": err.Error()})
		}
		entries := make([]views.RecentProject, 0, len(recent))
		for _, r := range recent {
			entries = append(entries, views.RecentProject{Name: r.Name, Path: r.Path})
		}
		mc.view.ShowProjectChooser(entries, mc.openProject, mc.handleNewProject, mc.handleForgetProject)
	})
}

// handleForgetProject asks before dropping a recent project, then shows the chooser again.
func (mc *MainController) handleForgetProject(p views.RecentProject) {
	msg := fmt.Sprintf("Remove %s from the recent projects?\nThe project folder is not deleted.", p.Name)
	mc.view.ShowConfirm("Remove Recent Project", msg, func(ok bool) {
		if ok {
			ctx, cancel := context.WithTimeout(mc.ctx, 5*time.Second)
			err := mc.projects.ForgetRecent(ctx, p.Path)
			cancel()
			if err != nil {
				mc.handleError("Remove recent project", err)
			}
		}
		mc.handleOpenProject()
	})
}

func (mc *MainController) openProject(dir string) {
	mc.stopPlayback()
	mc.annotations.Close()
	mc.view.ClearRecording()

	cfg, err := mc.projects.Open(mc.ctx, dir)
	if err != nil {
		mc.handleError("Open project", err)
		return
	}

	mc.view.SetProject(cfg.ProjectName(), cfg.EventNames(), cfg.ConditionOptions())
	mc.refreshRecordings()
	mc.view.UpdateStatus(fmt.Sprintf("Opened %s", cfg.ProjectName()))
	mc.rememberProject(dir)
	mc.watchConfig()

	if mc.projects.Recordings().Len() > 0 {
		mc.loadRecording(0)
	}
}

func (mc *MainController) handleNewProject() {
	mc.guardUnsaved(func() {
		mc.view.ShowProjectForm("New Project", views.ProjectForm{}, true, func(parent string, form views.ProjectForm) error {
			cfg, err := form.Config(nil)
			if err != nil {
				return err
			}
			dir, err := project.Create(parent, cfg)
			if err != nil {
				return err
			}
			mc.openProject(dir)
			return nil
		})
	})
}

func (mc *MainController) handleEditProject() {
	current := mc.projects.Config()
	if current == nil {
		mc.handleError("Edit project", project.ErrNoProject)
		return
	}
	mc.view.ShowProjectForm("Edit Project", views.FormFromConfig(current), false, func(_ string, form views.ProjectForm) error {
		cfg, err := form.Config(current)
		if err != nil {
			return err
		}
		if err := mc.projects.Update(cfg); err != nil {
			return err
		}
		mc.annotations.SetConfig(cfg)
		mc.view.SetProject(cfg.ProjectName(), cfg.EventNames(), cfg.ConditionOptions())
		mc.renderFrame()
		return nil
	})
}

// watchConfig restarts the config file watcher for the open project.
func (mc *MainController) watchConfig() {
	ctx, cancel := context.WithCancel(mc.ctx)

	mc.mu.Lock()
	if mc.watchCancel != nil {
		mc.watchCancel()
	}
	mc.watchCancel = cancel
	mc.mu.Unlock()

	go func() {
		err := mc.projects.Watch(ctx, func(cfg *project.Config, err error) {
			if err != nil {
				mc.logger.Warning("MainController", "config reload failed", map[string]interface{}{"error": err.Error()})
				return
			}
			mc.annotations.SetConfig(cfg)
			mc.bus.Publish(eventbus.Event{Type: eventbus.ConfigReloaded})
		})
		if err != nil {
			mc.logger.Error("MainController", err, map[string]interface{}{"operation": "watch config"})
		}
	}()
}

func (mc *MainController) rememberProject(dir string) {
	if mc.settings.State.LastProject == dir {
		return
	}
	mc.settings.State.LastProject = dir
	if err := mc.settings.Save(); err != nil {
		mc.logger.Warning("MainController", "could not save settings", map[string]interface{}{"error": err.Error()})
	}
}

func (mc *MainController) refreshRecordings() {
	index := mc.projects.Recordings()
	annotated := mc.projects.Annotated(mc.ctx)

	recs := index.Items()
	items := make([]components.RecordingItem, len(recs))
	for i, r := range recs {
		items[i] = components.RecordingItem{Name: r.Name, Annotated: annotated[r.Dir]}
	}
	mc.view.SetRecordings(items, index.Current())
}

func (mc *MainController) handleImport() {
	if !mc.projects.Loaded() {
		mc.handleError("Import", project.ErrNoProject)
		return
	}
	mc.view.ShowImportDialog(importer.Devices, func(source, device string) {
		go func() {
			n, err := mc.projects.Import(mc.ctx, source, device, func(done, total int, current string) {
				mc.view.UpdateProgress(fmt.Sprintf("Importing %s", current), done, total)
			})
			mc.view.UpdateProgress("", 1, 1)
			mc.refreshRecordings()

			if err != nil {
				mc.handleError("Import", err)
			}
			if n > 0 {
				mc.view.ShowInfo("Import", fmt.Sprintf("Imported %d recording(s).", n))
			}
		}()
	})
}

func (mc *MainController) handleExport() {
	if !mc.projects.Loaded() {
		mc.handleError("Export", project.ErrNoProject)
		return
	}
	summary, err := mc.projects.Export()
	if err != nil {
		mc.handleError("Export", err)
		if summary.Rows == 0 {
			return
		}
	}
	mc.view.ShowInfo("Export", fmt.Sprintf("Wrote %d events from %d recordings to\n%s",
		summary.Rows, summary.Recordings, summary.Path))
}

// Recording handling

func (mc *MainController) handleSelectRecording(i int) {
	if i == mc.projects.Recordings().Current() && mc.annotations.Loaded() {
		return
	}
	mc.guardUnsaved(func() { mc.loadRecording(i) })
	// keep the list on the loaded recording until the guard resolves
	mc.view.SetCurrentRecording(mc.projects.Recordings().Current())
}

func (mc *MainController) handleStepRecording(delta int) {
	index := mc.projects.Recordings()
	var (
		next int
		ok   bool
	)
	if delta < 0 {
		next, ok = index.Prev(index.Current())
	} else {
		next, ok = index.Next(index.Current())
	}
	if !ok {
		return
	}
	mc.guardUnsaved(func() { mc.loadRecording(next) })
}

// loadRecording opens recording i in the background and updates the view when done.
func (mc *MainController) loadRecording(i int) {
	rec, ok := mc.projects.Recordings().At(i)
	if !ok {
		return
	}

	mc.mu.Lock()
	if mc.loading {
		mc.mu.Unlock()
		return
	}
	mc.loading = true
	mc.mu.Unlock()

	mc.stopPlayback()
	mc.view.UpdateStatus(fmt.Sprintf("Loading %s...", rec.Name))

	go func() {
		defer func() {
			mc.mu.Lock()
			mc.loading = false
			mc.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(mc.ctx, loadTimeout)
		defer cancel()

		warnings, err := mc.annotations.Load(ctx, rec, mc.projects.Config())
		if err != nil {
			mc.view.ClearRecording()
			mc.handleError("Load recording", err)
			return
		}
		mc.projects.Recordings().SetCurrent(i)
		mc.view.SetCurrentRecording(i)

		if s := mc.annotations.Session(); s != nil {
			w, h := mc.annotations.VideoSize()
			mc.view.SetRecordingLoaded(rec.Name, w, h, mc.annotations.FPS(), s.Gaze.Samples())
			mc.view.SetPupilPlot(mc.annotations.PupilSeries(), mc.annotations.Events(), mc.annotations.EventColor)
			mc.refreshMetadata()
		}
		mc.refreshEvents()
		mc.renderFrame()
		mc.view.UpdateStatus(fmt.Sprintf("Loaded %s", rec.Name))

		if warnings != nil {
			mc.handleError("Load recording", warnings)
		}
	}()
}

// guardUnsaved runs next directly, or after the user has saved or discarded unsaved changes.
func (mc *MainController) guardUnsaved(next func()) {
	if !mc.annotations.Dirty() {
		next()
		return
	}
	mc.stopPlayback()
	mc.view.ShowUnsavedChanges(
		func() { mc.save(next) },
		next,
	)
}

// RequestClose is the window close intercept: it checks for unsaved changes, then calls quit.
func (mc *MainController) RequestClose(quit func()) {
	mc.guardUnsaved(quit)
}

// Playback

func (mc *MainController) handleTogglePlay() {
	if !mc.annotations.Loaded() {
		return
	}
	cursor := mc.annotations.Cursor()
	if cursor.Playing() {
		mc.stopPlayback()
		return
	}
	if cursor.AtEnd() {
		cursor.Set(0)
	}
	mc.startPlayback()
}

func (mc *MainController) startPlayback() {
	cursor := mc.annotations.Cursor()
	if !cursor.Toggle() {
		return
	}
	ctx, cancel := context.WithCancel(mc.ctx)

	mc.mu.Lock()
	if mc.playCancel != nil {
		mc.playCancel()
	}
	mc.playCancel = cancel
	mc.mu.Unlock()

	mc.view.SetPlaying(true)
	go mc.playLoop(ctx, cursor, playback.Interval(mc.annotations.FPS()))
}

func (mc *MainController) playLoop(ctx context.Context, cursor *playback.Cursor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !cursor.Playing() {
				return
			}
			if !cursor.Next() {
				mc.stopPlayback()
				return
			}
			mc.renderFrameSync()
		}
	}
}

func (mc *MainController) stopPlayback() {
	mc.mu.Lock()
	if mc.playCancel != nil {
		mc.playCancel()
		mc.playCancel = nil
	}
	mc.mu.Unlock()

	mc.annotations.Cursor().Stop()
	mc.view.SetPlaying(false)
}

func (mc *MainController) handleStep(delta int) {
	if !mc.annotations.Loaded() {
		return
	}
	mc.stopPlayback()
	if mc.annotations.Cursor().Jump(delta) {
		mc.renderFrame()
	}
}

func (mc *MainController) handleSeek(frame int) {
	if !mc.annotations.Loaded() {
		return
	}
	cursor := mc.annotations.Cursor()
	if frame == cursor.Current() {
		return
	}
	cursor.Set(frame)
	mc.renderFrame()
}

// handleResize runs on the UI goroutine, so the box size is read here for later renders.
func (mc *MainController) handleResize() {
	w, h := mc.view.VideoBoxSize()
	mc.mu.Lock()
	mc.boxW, mc.boxH = w, h
	mc.mu.Unlock()
	mc.renderFrame()
}

// renderFrame renders the current frame in the background.
func (mc *MainController) renderFrame() {
	go mc.renderFrameSync()
}

func (mc *MainController) renderFrameSync() {
	if !mc.annotations.Loaded() {
		return
	}
	mc.renderMu.Lock()
	defer mc.renderMu.Unlock()

	mc.mu.Lock()
	w, h := mc.boxW, mc.boxH
	mc.mu.Unlock()

	fv, err := mc.annotations.Render(w, h)
	if err != nil {
		if errors.Is(err, services.ErrNoRecording) {
			return
		}
		mc.logger.Warning("MainController", "frame render failed", map[string]interface{}{"error": err.Error()})
		mc.view.UpdateStatus(err.Error())
		return
	}

	var textColor color.Color = labelColor
	if fv.Active {
		textColor = fv.Color
	}
	mc.view.SetFrame(fv.Image, fv.Label, textColor, fv.Info, fv.Current, fv.Total)
}

// Annotation editing

func (mc *MainController) handleCreateEvent(name string) {
	if name == "" {
		mc.view.UpdateStatus("Select an event type first")
		return
	}
	mc.handleEdit("create event", func() error { return mc.annotations.Create(name) })
}

func (mc *MainController) handleEdit(operation string, fn func() error) {
	if !mc.annotations.Loaded() {
		return
	}
	err := fn()
	switch {
	case err == nil:
		mc.view.UpdateStatus("")
	case errors.Is(err, annotation.ErrDuplicateEvent):
		// the existing event is now selected
		mc.refreshEvents()
		mc.view.UpdateStatus(err.Error())
	case errors.Is(err, annotation.ErrNoSelection),
		errors.Is(err, annotation.ErrInvalidRange),
		errors.Is(err, annotation.ErrNothingToUndo):
		mc.view.UpdateStatus(err.Error())
	default:
		mc.handleError(operation, err)
	}
}

func (mc *MainController) handleSelectEvent(index int, useEnd bool) {
	if !mc.annotations.Select(index, useEnd) {
		return
	}
	mc.stopPlayback()
	mc.refreshEvents()
	mc.renderFrame()
}

func (mc *MainController) handleMetadataChange(field, value string) {
	mc.annotations.SetMetadata(field, value)
	mc.refreshMissing()
}

func (mc *MainController) refreshEvents() {
	selected, ok := mc.annotations.Selected()
	if !ok {
		selected = -1
	}
	mc.view.SetEvents(mc.annotations.EventList(), selected)
}

func (mc *MainController) refreshMetadata() {
	s := mc.annotations.Session()
	if s == nil {
		return
	}
	mc.view.SetMetadata(
		s.Metadata.Get(metadata.ParticipantID),
		s.Metadata.Get(metadata.Condition),
		s.Metadata.Get(metadata.SeriesTitle),
		s.Metadata.Missing(),
	)
}

func (mc *MainController) refreshMissing() {
	if s := mc.annotations.Session(); s != nil {
		mc.view.SetMissingMetadata(s.Metadata.Missing())
	}
}

// save writes the loaded recording and then runs next, if set. A failed save does not run next.
func (mc *MainController) save(next func()) {
	if !mc.annotations.Loaded() {
		if next != nil {
			next()
		}
		return
	}

	res, err := mc.annotations.Save()
	if err != nil {
		mc.handleError("Save", err)
		return
	}
	if !res.Complete {
		mc.view.ShowInfo("Saved", "Saved. Some events are still missing a start or end frame.")
	}
	if next != nil {
		next()
	}
}

func (mc *MainController) handleAbout() {
	mc.view.ShowAboutDialog(AppTitle, AppVersion,
		"Annotate events in eye-tracking scene videos with the gaze position drawn on each frame.")
}

// AppVersion is reported in the about dialog.
var AppVersion = "dev"

// handleError logs err and shows it to the user once.
func (mc *MainController) handleError(operation string, err error) {
	mc.logger.Error("MainController", err, map[string]interface{}{"operation": operation})
	if mc.view != nil {
		mc.view.ShowError(operation, err)
	}
}

// Shutdown stops playback and background work and releases the video.
func (mc *MainController) Shutdown() {
	mc.stopPlayback()
	mc.cancel()

	if mc.bus != nil {
		for _, h := range mc.handlers {
			for _, t := range []eventbus.EventType{eventbus.EventsChanged, eventbus.RecordingLoaded, eventbus.SessionSaved, eventbus.ConfigReloaded} {
				mc.bus.Unsubscribe(t, h)
			}
		}
	}

	mc.renderMu.Lock()
	mc.annotations.Close()
	mc.renderMu.Unlock()

	mc.logger.Info("MainController", "controller shutdown completed", nil)
}

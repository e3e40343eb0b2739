package views

import (
	"image"
	"image/color"

	"zarafe/internal/annotation"
	"zarafe/internal/views/components"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
)

// MainView is the annotation window: recordings on the left, the video in the middle and the
// annotation controls on the right.
type MainView struct {
	window          fyne.Window
	mainContainer   *fyne.Container
	projectPanel    *components.ProjectPanel
	videoPanel      *components.VideoPanel
	annotationPanel *components.AnnotationPanel
	statusBar       *components.StatusBar
	progressBar     *components.ProgressBar
	jumpStep        int

	// Handlers the view cannot route through a component.
	playHandler       func()
	stepHandler       func(int)
	undoHandler       func()
	saveHandler       func()
	newProjectHandler func()
	aboutHandler      func()
}

func NewMainView(window fyne.Window, jumpFrames int) *MainView {
	view := &MainView{
		window:   window,
		jumpStep: jumpFrames,
	}

	view.initializeComponents(jumpFrames)
	view.buildLayout()
	view.setupShortcuts()

	return view
}

func (mv *MainView) initializeComponents(jumpFrames int) {
	mv.projectPanel = components.NewProjectPanel()
	mv.videoPanel = components.NewVideoPanel(jumpFrames)
	mv.annotationPanel = components.NewAnnotationPanel()
	mv.statusBar = components.NewStatusBar()
	mv.progressBar = components.NewProgressBar()
}

func (mv *MainView) buildLayout() {
	center := container.NewHSplit(mv.videoPanel.GetContainer(), mv.annotationPanel.GetContainer())
	center.SetOffset(0.72)

	content := container.NewHSplit(mv.projectPanel.GetContainer(), center)
	content.SetOffset(0.18)

	mv.mainContainer = container.NewBorder(
		nil,
		container.NewVBox(mv.progressBar.GetContainer(), mv.statusBar.GetContainer()),
		nil,
		nil,
		content,
	)

	mv.window.SetContent(mv.mainContainer)
}

func (mv *MainView) setupShortcuts() {
	c := mv.window.Canvas()

	call := func(h *func()) func(fyne.Shortcut) {
		return func(fyne.Shortcut) {
			if *h != nil {
				(*h)()
			}
		}
	}
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, call(&mv.undoHandler))
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}, call(&mv.saveHandler))

	step := func(delta int) func(fyne.Shortcut) {
		return func(fyne.Shortcut) {
			if mv.stepHandler != nil {
				mv.stepHandler(delta)
			}
		}
	}
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyLeft, Modifier: fyne.KeyModifierShift}, step(-mv.jumpStep))
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyRight, Modifier: fyne.KeyModifierShift}, step(mv.jumpStep))

	// Plain keys only reach the canvas when no entry has focus.
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeySpace:
			if mv.playHandler != nil {
				mv.playHandler()
			}
		case fyne.KeyLeft:
			if mv.stepHandler != nil {
				mv.stepHandler(-1)
			}
		case fyne.KeyRight:
			if mv.stepHandler != nil {
				mv.stepHandler(1)
			}
		}
	})
}

// SetupMenu installs the main menu. The handlers are the same ones the panels use.
func (mv *MainView) SetupMenu(appName string, openProject, editProject, importRecordings, exportSummary func()) {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Project...", openProject),
		fyne.NewMenuItem("New Project...", func() {
			if mv.newProjectHandler != nil {
				mv.newProjectHandler()
			}
		}),
		fyne.NewMenuItem("Edit Project...", editProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Recordings...", importRecordings),
		fyne.NewMenuItem("Export Summary", exportSummary),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", func() {
			if mv.saveHandler != nil {
				mv.saveHandler()
			}
		}),
	)
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About "+appName, func() {
			if mv.aboutHandler != nil {
				mv.aboutHandler()
			}
		}),
	)
	mv.window.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}

// Event handler setters - called by controller

func (mv *MainView) SetOpenProjectHandler(handler func())   { mv.projectPanel.SetOpenHandler(handler) }
func (mv *MainView) SetEditProjectHandler(handler func())   { mv.projectPanel.SetEditHandler(handler) }
func (mv *MainView) SetNewProjectHandler(handler func())    { mv.newProjectHandler = handler }
func (mv *MainView) SetImportHandler(handler func())        { mv.projectPanel.SetImportHandler(handler) }
func (mv *MainView) SetExportHandler(handler func())        { mv.projectPanel.SetExportHandler(handler) }
func (mv *MainView) SetRecordingHandler(handler func(int))  { mv.projectPanel.SetSelectHandler(handler) }
func (mv *MainView) SetPrevRecordingHandler(handler func()) { mv.projectPanel.SetPrevHandler(handler) }
func (mv *MainView) SetNextRecordingHandler(handler func()) { mv.projectPanel.SetNextHandler(handler) }
func (mv *MainView) SetSeekHandler(handler func(int))       { mv.videoPanel.SetSeekHandler(handler) }
func (mv *MainView) SetResizeHandler(handler func())        { mv.videoPanel.SetResizeHandler(handler) }
func (mv *MainView) SetCreateEventHandler(handler func(string)) {
	mv.annotationPanel.SetCreateHandler(handler)
}
func (mv *MainView) SetMarkStartHandler(handler func()) { mv.annotationPanel.SetStartHandler(handler) }
func (mv *MainView) SetMarkEndHandler(handler func())   { mv.annotationPanel.SetEndHandler(handler) }
func (mv *MainView) SetDeleteEventHandler(handler func()) {
	mv.annotationPanel.SetDeleteHandler(handler)
}
func (mv *MainView) SetAboutHandler(handler func()) { mv.aboutHandler = handler }

// SetEventSelectHandler is called with the tapped event row; useEnd is set for a secondary tap.
func (mv *MainView) SetEventSelectHandler(handler func(index int, useEnd bool)) {
	mv.annotationPanel.SetEventHandler(handler)
}

func (mv *MainView) SetMetadataHandler(handler func(field, value string)) {
	mv.annotationPanel.SetMetadataHandler(handler)
}

func (mv *MainView) SetPlayHandler(handler func()) {
	mv.playHandler = handler
	mv.videoPanel.SetPlayHandler(handler)
}

func (mv *MainView) SetStepHandler(handler func(int)) {
	mv.stepHandler = handler
	mv.videoPanel.SetStepHandler(handler)
}

func (mv *MainView) SetUndoHandler(handler func()) {
	mv.undoHandler = handler
	mv.annotationPanel.SetUndoHandler(handler)
}

func (mv *MainView) SetSaveHandler(handler func()) {
	mv.saveHandler = handler
	mv.annotationPanel.SetSaveHandler(handler)
}

// UI update methods - called by controller, safe from any goroutine

// SetProject shows the open project's name and event vocabulary.
func (mv *MainView) SetProject(name string, eventTypes, conditions []string) {
	fyne.Do(func() {
		mv.projectPanel.SetProjectName(name)
		mv.projectPanel.SetProjectLoaded(true)
		mv.annotationPanel.SetEventTypes(eventTypes)
		mv.annotationPanel.SetConditions(conditions)
		mv.window.SetTitle(name)
	})
}

func (mv *MainView) SetRecordings(items []components.RecordingItem, current int) {
	fyne.Do(func() {
		mv.projectPanel.SetRecordings(items, current)
	})
}

func (mv *MainView) SetCurrentRecording(current int) {
	fyne.Do(func() {
		mv.projectPanel.SetCurrent(current)
	})
}

// SetRecordingLoaded enables the video and annotation controls and shows the recording details.
func (mv *MainView) SetRecordingLoaded(name string, width, height int, fps float64, gazeSamples int) {
	fyne.Do(func() {
		mv.videoPanel.SetEnabled(true)
		mv.annotationPanel.SetEnabled(true)
		mv.statusBar.SetRecordingInfo(name, width, height, fps)
		mv.statusBar.SetGazeInfo(gazeSamples)
	})
}

// ClearRecording returns the video and annotation panels to their empty state.
func (mv *MainView) ClearRecording() {
	fyne.Do(func() {
		mv.videoPanel.Clear()
		mv.annotationPanel.Clear()
		mv.statusBar.Reset()
	})
}

func (mv *MainView) SetFrame(img image.Image, label string, labelColor color.Color, info string, current, total int) {
	fyne.Do(func() {
		mv.videoPanel.SetFrame(img, label, labelColor, info, current, total)
	})
}

// SetPupilPlot shows the pupil diameter series of the loaded recording with its events.
func (mv *MainView) SetPupilPlot(series []float64, events []annotation.Event, colorOf func(string) color.RGBA) {
	fyne.Do(func() {
		mv.videoPanel.SetPupilData(series, events, colorOf)
	})
}

func (mv *MainView) SetPupilEvents(events []annotation.Event) {
	fyne.Do(func() {
		mv.videoPanel.SetPupilEvents(events)
	})
}

func (mv *MainView) SetPlaying(playing bool) {
	fyne.Do(func() {
		mv.videoPanel.SetPlaying(playing)
	})
}

func (mv *MainView) SetEvents(rows []string, selected int) {
	fyne.Do(func() {
		mv.annotationPanel.SetEvents(rows, selected)
	})
}

func (mv *MainView) SetMetadata(participant, condition, title string, missing []string) {
	fyne.Do(func() {
		mv.annotationPanel.SetMetadata(participant, condition, title, missing)
	})
}

func (mv *MainView) SetMissingMetadata(missing []string) {
	fyne.Do(func() {
		mv.annotationPanel.SetMissing(missing)
	})
}

func (mv *MainView) UpdateStatus(status string) {
	fyne.Do(func() {
		mv.statusBar.SetStatus(status)
	})
}

// UpdateProgress shows import progress. done == total hides the bar.
func (mv *MainView) UpdateProgress(stage string, done, total int) {
	fyne.Do(func() {
		mv.progressBar.SetProgress(stage, done, total)
		mv.progressBar.SetVisible(done < total)
	})
}

// VideoBoxSize is the pixel area available for frames. It must be called on the UI goroutine.
func (mv *MainView) VideoBoxSize() (int, int) {
	return mv.videoPanel.BoxSize()
}

func (mv *MainView) ShowError(title string, err error) {
	fyne.Do(func() {
		dialog.ShowError(err, mv.window)
	})
}

func (mv *MainView) ShowInfo(title, message string) {
	fyne.Do(func() {
		dialog.ShowInformation(title, message, mv.window)
	})
}

func (mv *MainView) ShowConfirm(title, message string, callback func(bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(title, message, callback, mv.window)
	})
}

func (mv *MainView) Show() {
	fyne.Do(func() {
		mv.window.Show()
	})
}

func (mv *MainView) Close() {
	fyne.Do(func() {
		mv.window.Close()
	})
}

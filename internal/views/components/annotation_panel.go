package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"zarafe/internal/metadata"
)

// AnnotationPanel holds the metadata form, the event controls and the event list.
type AnnotationPanel struct {
	container *fyne.Container

	participantEntry *widget.Entry
	conditionSelect  *widget.Select
	titleEntry       *widget.Entry
	missingLabel     *widget.Label

	eventTypeSelect *widget.Select
	createButton    *widget.Button
	startButton     *widget.Button
	endButton       *widget.Button
	deleteButton    *widget.Button
	undoButton      *widget.Button
	saveButton      *widget.Button
	eventList       *widget.List

	events   []string
	updating bool

	metadataHandler func(field, value string)
	createHandler   func(string)
	startHandler    func()
	endHandler      func()
	deleteHandler   func()
	undoHandler     func()
	saveHandler     func()
	eventHandler    func(index int, useEnd bool)
}

func NewAnnotationPanel() *AnnotationPanel {
	ap := &AnnotationPanel{}
	ap.createComponents()
	ap.buildLayout()
	ap.setupEventHandlers()
	ap.SetEnabled(false)
	return ap
}

func (ap *AnnotationPanel) createComponents() {
	ap.participantEntry = widget.NewEntry()
	ap.participantEntry.SetPlaceHolder("e.g. P01")
	ap.conditionSelect = widget.NewSelect(nil, nil)
	ap.conditionSelect.PlaceHolder = "(select condition)"
	ap.titleEntry = widget.NewEntry()
	ap.titleEntry.SetPlaceHolder("e.g. Session 1")
	ap.missingLabel = widget.NewLabel("")
	ap.missingLabel.Importance = widget.WarningImportance

	ap.eventTypeSelect = widget.NewSelect(nil, nil)
	ap.eventTypeSelect.PlaceHolder = "(select event type)"
	ap.createButton = widget.NewButtonWithIcon("Create", theme.ContentAddIcon(), nil)
	ap.startButton = widget.NewButton("Mark Start", nil)
	ap.endButton = widget.NewButton("Mark End", nil)
	ap.deleteButton = widget.NewButtonWithIcon("Delete", theme.DeleteIcon(), nil)
	ap.undoButton = widget.NewButtonWithIcon("Undo", theme.ContentUndoIcon(), nil)
	ap.saveButton = widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), nil)
	ap.saveButton.Importance = widget.HighImportance

	ap.eventList = widget.NewList(
		func() int { return len(ap.events) },
		func() fyne.CanvasObject { return newEventRow(ap.onRowTapped) },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			row := obj.(*eventRow)
			row.index = id
			if id >= 0 && id < len(ap.events) {
				row.SetText(ap.events[id])
			}
		},
	)
}

func (ap *AnnotationPanel) buildLayout() {
	form := widget.NewForm(
		widget.NewFormItem("Participant ID", ap.participantEntry),
		widget.NewFormItem("Condition", ap.conditionSelect),
		widget.NewFormItem("Series Title", ap.titleEntry),
	)

	controls := container.NewVBox(
		widget.NewLabelWithStyle("Event", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, nil, ap.createButton, ap.eventTypeSelect),
		container.NewGridWithColumns(2, ap.startButton, ap.endButton),
		container.NewGridWithColumns(2, ap.deleteButton, ap.undoButton),
		ap.saveButton,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Events", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)

	top := container.NewVBox(
		widget.NewLabelWithStyle("Metadata", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		ap.missingLabel,
		widget.NewSeparator(),
		controls,
	)

	ap.container = container.NewBorder(top, nil, nil, nil, ap.eventList)
}

func (ap *AnnotationPanel) setupEventHandlers() {
	metadataChanged := func(field string) func(string) {
		return func(value string) {
			if ap.updating || ap.metadataHandler == nil {
				return
			}
			ap.metadataHandler(field, value)
		}
	}
	ap.participantEntry.OnChanged = metadataChanged(metadata.ParticipantID)
	ap.conditionSelect.OnChanged = metadataChanged(metadata.Condition)
	ap.titleEntry.OnChanged = metadataChanged(metadata.SeriesTitle)

	ap.createButton.OnTapped = func() {
		if ap.createHandler != nil {
			ap.createHandler(ap.eventTypeSelect.Selected)
		}
	}
	call := func(h *func()) func() {
		return func() {
			if *h != nil {
				(*h)()
			}
		}
	}
	ap.startButton.OnTapped = call(&ap.startHandler)
	ap.endButton.OnTapped = call(&ap.endHandler)
	ap.deleteButton.OnTapped = call(&ap.deleteHandler)
	ap.undoButton.OnTapped = call(&ap.undoHandler)
	ap.saveButton.OnTapped = call(&ap.saveHandler)
}

func (ap *AnnotationPanel) onRowTapped(index int, useEnd bool) {
	if ap.eventHandler != nil {
		ap.eventHandler(index, useEnd)
	}
}

func (ap *AnnotationPanel) SetMetadataHandler(handler func(field, value string)) {
	ap.metadataHandler = handler
}
func (ap *AnnotationPanel) SetCreateHandler(handler func(string)) { ap.createHandler = handler }
func (ap *AnnotationPanel) SetStartHandler(handler func())        { ap.startHandler = handler }
func (ap *AnnotationPanel) SetEndHandler(handler func())          { ap.endHandler = handler }
func (ap *AnnotationPanel) SetDeleteHandler(handler func())       { ap.deleteHandler = handler }
func (ap *AnnotationPanel) SetUndoHandler(handler func())         { ap.undoHandler = handler }
func (ap *AnnotationPanel) SetSaveHandler(handler func())         { ap.saveHandler = handler }

// SetEventHandler is called when an event row is tapped. useEnd is set for a secondary tap.
func (ap *AnnotationPanel) SetEventHandler(handler func(index int, useEnd bool)) {
	ap.eventHandler = handler
}

// SetEventTypes replaces the event type choices, keeping the selection when it still exists.
func (ap *AnnotationPanel) SetEventTypes(names []string) {
	selected := ap.eventTypeSelect.Selected
	ap.eventTypeSelect.SetOptions(names)
	for _, n := range names {
		if n == selected {
			return
		}
	}
	ap.eventTypeSelect.ClearSelected()
}

func (ap *AnnotationPanel) SetConditions(conditions []string) {
	ap.updating = true
	defer func() { ap.updating = false }()
	selected := ap.conditionSelect.Selected
	ap.conditionSelect.SetOptions(conditions)
	ap.conditionSelect.SetSelected(selected)
}

// SetMetadata fills the form without reporting changes. missing lists required fields still empty.
func (ap *AnnotationPanel) SetMetadata(participant, condition, title string, missing []string) {
	ap.updating = true
	defer func() { ap.updating = false }()

	ap.participantEntry.SetText(participant)
	if condition == "" {
		ap.conditionSelect.ClearSelected()
	} else {
		ap.conditionSelect.SetSelected(condition)
	}
	ap.titleEntry.SetText(title)
	ap.SetMissing(missing)
}

// SetMissing lists the required metadata fields that are still empty.
func (ap *AnnotationPanel) SetMissing(missing []string) {
	ap.missingLabel.SetText(missingText(missing))
}

// SetEvents replaces the event list and highlights selected, or nothing when selected is -1.
func (ap *AnnotationPanel) SetEvents(rows []string, selected int) {
	ap.events = rows
	ap.eventList.Refresh()
	if selected < 0 || selected >= len(rows) {
		ap.eventList.UnselectAll()
		return
	}
	ap.eventList.Select(selected)
	ap.eventList.ScrollTo(selected)
}

func (ap *AnnotationPanel) SetEnabled(enabled bool) {
	widgets := []fyne.Disableable{
		ap.participantEntry, ap.conditionSelect, ap.titleEntry, ap.eventTypeSelect,
		ap.createButton, ap.startButton, ap.endButton, ap.deleteButton, ap.undoButton, ap.saveButton,
	}
	for _, w := range widgets {
		if enabled {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}

// Clear empties the form and the event list.
func (ap *AnnotationPanel) Clear() {
	ap.SetMetadata("", "", "", nil)
	ap.SetEvents(nil, -1)
	ap.SetEnabled(false)
}

func (ap *AnnotationPanel) GetContainer() *fyne.Container {
	return ap.container
}

// eventRow is a list row that reports primary and secondary taps with its index.
type eventRow struct {
	widget.Label
	index int
	onTap func(index int, useEnd bool)
}

func newEventRow(onTap func(int, bool)) *eventRow {
	row := &eventRow{onTap: onTap}
	row.Truncation = fyne.TextTruncateEllipsis
	row.ExtendBaseWidget(row)
	return row
}

func (r *eventRow) Tapped(*fyne.PointEvent) {
	if r.onTap != nil {
		r.onTap(r.index, false)
	}
}

func (r *eventRow) TappedSecondary(*fyne.PointEvent) {
	if r.onTap != nil {
		r.onTap(r.index, true)
	}
}

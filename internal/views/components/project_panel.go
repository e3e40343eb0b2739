package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// RecordingItem is one row of the recording list.
type RecordingItem struct {
	Name      string
	Annotated bool
}

// ProjectPanel lists the recordings of the open project.
type ProjectPanel struct {
	container    *fyne.Container
	projectLabel *widget.Label
	countLabel   *widget.Label
	list         *widget.List

	openButton   *widget.Button
	editButton   *widget.Button
	importButton *widget.Button
	exportButton *widget.Button
	prevButton   *widget.Button
	nextButton   *widget.Button

	items    []RecordingItem
	updating bool

	openHandler   func()
	editHandler   func()
	importHandler func()
	exportHandler func()
	selectHandler func(int)
	prevHandler   func()
	nextHandler   func()
}

func NewProjectPanel() *ProjectPanel {
	pp := &ProjectPanel{}
	pp.createComponents()
	pp.buildLayout()
	pp.setupEventHandlers()
	pp.SetProjectLoaded(false)
	return pp
}

func (pp *ProjectPanel) createComponents() {
	pp.projectLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	pp.projectLabel.Wrapping = fyne.TextWrapWord
	pp.countLabel = widget.NewLabel("")

	pp.list = widget.NewList(
		func() int { return len(pp.items) },
		func() fyne.CanvasObject {
			return container.NewHBox(widget.NewIcon(theme.CheckButtonIcon()), widget.NewLabel("recording"))
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(pp.items) {
				return
			}
			row := obj.(*fyne.Container)
			icon := row.Objects[0].(*widget.Icon)
			label := row.Objects[1].(*widget.Label)
			if pp.items[id].Annotated {
				icon.SetResource(theme.CheckButtonCheckedIcon())
			} else {
				icon.SetResource(theme.CheckButtonIcon())
			}
			label.SetText(pp.items[id].Name)
		},
	)

	pp.openButton = widget.NewButtonWithIcon("Open Project", theme.FolderOpenIcon(), nil)
	pp.editButton = widget.NewButtonWithIcon("Edit Project", theme.SettingsIcon(), nil)
	pp.importButton = widget.NewButtonWithIcon("Import", theme.DownloadIcon(), nil)
	pp.exportButton = widget.NewButtonWithIcon("Export Summary", theme.DocumentSaveIcon(), nil)
	pp.prevButton = widget.NewButtonWithIcon("Previous", theme.NavigateBackIcon(), nil)
	pp.nextButton = widget.NewButtonWithIcon("Next", theme.NavigateNextIcon(), nil)
}

func (pp *ProjectPanel) buildLayout() {
	top := container.NewVBox(
		pp.projectLabel,
		container.NewGridWithColumns(2, pp.openButton, pp.editButton),
		container.NewGridWithColumns(2, pp.importButton, pp.exportButton),
		widget.NewSeparator(),
		pp.countLabel,
	)
	bottom := container.NewGridWithColumns(2, pp.prevButton, pp.nextButton)

	pp.container = container.NewBorder(top, bottom, nil, nil, pp.list)
}

func (pp *ProjectPanel) setupEventHandlers() {
	call := func(h *func()) func() {
		return func() {
			if *h != nil {
				(*h)()
			}
		}
	}
	pp.openButton.OnTapped = call(&pp.openHandler)
	pp.editButton.OnTapped = call(&pp.editHandler)
	pp.importButton.OnTapped = call(&pp.importHandler)
	pp.exportButton.OnTapped = call(&pp.exportHandler)
	pp.prevButton.OnTapped = call(&pp.prevHandler)
	pp.nextButton.OnTapped = call(&pp.nextHandler)

	pp.list.OnSelected = func(id widget.ListItemID) {
		if pp.updating || pp.selectHandler == nil {
			return
		}
		pp.selectHandler(id)
	}
}

func (pp *ProjectPanel) SetOpenHandler(handler func())      { pp.openHandler = handler }
func (pp *ProjectPanel) SetEditHandler(handler func())      { pp.editHandler = handler }
func (pp *ProjectPanel) SetImportHandler(handler func())    { pp.importHandler = handler }
func (pp *ProjectPanel) SetExportHandler(handler func())    { pp.exportHandler = handler }
func (pp *ProjectPanel) SetSelectHandler(handler func(int)) { pp.selectHandler = handler }
func (pp *ProjectPanel) SetPrevHandler(handler func())      { pp.prevHandler = handler }
func (pp *ProjectPanel) SetNextHandler(handler func())      { pp.nextHandler = handler }

func (pp *ProjectPanel) SetProjectName(name string) {
	pp.projectLabel.SetText(name)
}

// SetProjectLoaded enables the buttons that need an open project.
func (pp *ProjectPanel) SetProjectLoaded(loaded bool) {
	for _, b := range []*widget.Button{pp.editButton, pp.importButton, pp.exportButton, pp.prevButton, pp.nextButton} {
		if loaded {
			b.Enable()
		} else {
			b.Disable()
		}
	}
}

// SetRecordings replaces the list and highlights current, or nothing when current is -1.
func (pp *ProjectPanel) SetRecordings(items []RecordingItem, current int) {
	pp.items = items
	annotated := 0
	for _, it := range items {
		if it.Annotated {
			annotated++
		}
	}
	pp.countLabel.SetText(recordingCount(len(items), annotated))
	pp.list.Refresh()
	pp.SetCurrent(current)
}

// SetCurrent highlights a recording without notifying the select handler.
func (pp *ProjectPanel) SetCurrent(current int) {
	pp.updating = true
	defer func() { pp.updating = false }()
	if current < 0 || current >= len(pp.items) {
		pp.list.UnselectAll()
		return
	}
	pp.list.Select(current)
	pp.list.ScrollTo(current)
}

func (pp *ProjectPanel) GetContainer() *fyne.Container {
	return pp.container
}

package views

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// RecentProject is an entry of the project chooser.
type RecentProject struct {
	Name string
	Path string
}

// ShowProjectChooser offers the recent projects plus opening a folder or creating a new project.
// onForget removes an entry from the recent list.
func (mv *MainView) ShowProjectChooser(recent []RecentProject, onOpen func(dir string), onNew func(), onForget func(p RecentProject)) {
	fyne.Do(func() {
		var d dialog.Dialog

		// NewBorder keeps the center object first, then the trailing button.
		recentList := widget.NewList(
			func() int { return len(recent) },
			func() fyne.CanvasObject {
				remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
				remove.Importance = widget.LowImportance
				return container.NewBorder(nil, nil, nil, remove, container.NewVBox(
					widget.NewLabelWithStyle("name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
					widget.NewLabel("path"),
				))
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				row := obj.(*fyne.Container)
				text := row.Objects[0].(*fyne.Container)
				text.Objects[0].(*widget.Label).SetText(recent[id].Name)
				text.Objects[1].(*widget.Label).SetText(recent[id].Path)

				entry := recent[id]
				row.Objects[1].(*widget.Button).OnTapped = func() {
					d.Hide()
					onForget(entry)
				}
			},
		)
		recentList.OnSelected = func(id widget.ListItemID) {
			d.Hide()
			onOpen(recent[id].Path)
		}

		browse := widget.NewButtonWithIcon("Open Folder...", theme.FolderOpenIcon(), func() {
			d.Hide()
			mv.ShowFolderDialog(func(dir string) {
				onOpen(dir)
			})
		})
		create := widget.NewButtonWithIcon("New Project...", theme.ContentAddIcon(), func() {
			d.Hide()
			onNew()
		})

		var body fyne.CanvasObject = widget.NewLabel("No recent projects.")
		if len(recent) > 0 {
			scroll := container.NewVScroll(recentList)
			scroll.SetMinSize(fyne.NewSize(480, 240))
			body = scroll
		}

		content := container.NewBorder(
			widget.NewLabel("Open a recent project, an existing project folder, or create a new project."),
			container.NewGridWithColumns(2, browse, create),
			nil, nil,
			body,
		)
		d = dialog.NewCustom("Open Project", "Cancel", content, mv.window)
		d.Show()
	})
}

// ShowProjectForm edits a project. With askParent set the user also picks the folder the new
// project directory is created in. onSubmit returns an error to keep the dialog open.
func (mv *MainView) ShowProjectForm(title string, initial ProjectForm, askParent bool, onSubmit func(parent string, form ProjectForm) error) {
	fyne.Do(func() {
		name := widget.NewEntry()
		name.SetText(initial.Name)
		name.Validator = func(s string) error {
			if s == "" {
				return fmt.Errorf("project name is required")
			}
			return nil
		}

		eventTypes := widget.NewMultiLineEntry()
		eventTypes.SetText(initial.EventTypes)
		eventTypes.SetPlaceHolder("One per line. Use {target} for a per-target event type.")
		eventTypes.SetMinRowsVisible(5)

		accuracy := widget.NewEntry()
		accuracy.SetText(initial.AccuracyEvent)
		accuracy.SetPlaceHolder("optional, e.g. Accuracy Test")

		targets := widget.NewMultiLineEntry()
		targets.SetText(initial.Targets)
		targets.SetPlaceHolder("One per line: id or id: name")
		targets.SetMinRowsVisible(3)

		conditions := widget.NewMultiLineEntry()
		conditions.SetText(initial.Conditions)
		conditions.SetPlaceHolder("One per line")
		conditions.SetMinRowsVisible(3)

		parent := widget.NewLabel("")
		items := []*widget.FormItem{
			widget.NewFormItem("Name", name),
			widget.NewFormItem("Event types", eventTypes),
			widget.NewFormItem("Accuracy test event", accuracy),
			widget.NewFormItem("Targets", targets),
			widget.NewFormItem("Conditions", conditions),
		}
		if askParent {
			choose := widget.NewButtonWithIcon("Choose...", theme.FolderOpenIcon(), func() {
				mv.ShowFolderDialog(func(dir string) { parent.SetText(dir) })
			})
			items = append([]*widget.FormItem{
				widget.NewFormItem("Location", container.NewBorder(nil, nil, nil, choose, parent)),
			}, items...)
		}

		var d dialog.Dialog
		d = dialog.NewForm(title, "Save", "Cancel", items, func(ok bool) {
			if !ok {
				return
			}
			form := ProjectForm{
				Name:          name.Text,
				EventTypes:    eventTypes.Text,
				AccuracyEvent: accuracy.Text,
				Targets:       targets.Text,
				Conditions:    conditions.Text,
			}
			if askParent && parent.Text == "" {
				dialog.ShowError(fmt.Errorf("choose a location for the project"), mv.window)
				d.Show()
				return
			}
			if err := onSubmit(parent.Text, form); err != nil {
				dialog.ShowError(err, mv.window)
				d.Show()
			}
		}, mv.window)
		d.Resize(fyne.NewSize(560, 560))
		d.Show()
	})
}

// ShowImportDialog asks for the glassesTools output folder and the eye tracker that produced it.
func (mv *MainView) ShowImportDialog(devices []string, onStart func(source, device string)) {
	fyne.Do(func() {
		device := widget.NewSelect(devices, nil)
		if len(devices) > 0 {
			device.SetSelected(devices[0])
		}
		source := widget.NewLabel("")
		choose := widget.NewButtonWithIcon("Choose...", theme.FolderOpenIcon(), func() {
			mv.ShowFolderDialog(func(dir string) { source.SetText(dir) })
		})

		items := []*widget.FormItem{
			widget.NewFormItem("Source folder", container.NewBorder(nil, nil, nil, choose, source)),
			widget.NewFormItem("Eye tracker", device),
		}
		var d dialog.Dialog
		d = dialog.NewForm("Import Recordings", "Import", "Cancel", items, func(ok bool) {
			if !ok {
				return
			}
			if source.Text == "" {
				dialog.ShowError(fmt.Errorf("choose the folder to import from"), mv.window)
				d.Show()
				return
			}
			onStart(source.Text, device.Selected)
		}, mv.window)
		d.Resize(fyne.NewSize(520, 200))
		d.Show()
	})
}

// ShowUnsavedChanges asks what to do with unsaved annotations. Cancel does nothing.
func (mv *MainView) ShowUnsavedChanges(onSave, onDiscard func()) {
	fyne.Do(func() {
		var d *dialog.CustomDialog
		save := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), func() {
			d.Hide()
			onSave()
		})
		save.Importance = widget.HighImportance
		discard := widget.NewButtonWithIcon("Discard", theme.DeleteIcon(), func() {
			d.Hide()
			onDiscard()
		})
		cancel := widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() {
			d.Hide()
		})

		d = dialog.NewCustomWithoutButtons("Unsaved Changes",
			widget.NewLabel("You have unsaved changes. Do you want to save them?"), mv.window)
		d.SetButtons([]fyne.CanvasObject{cancel, discard, save})
		d.Show()
	})
}

// ShowFolderDialog lets the user pick a directory. onChosen is not called on cancel.
func (mv *MainView) ShowFolderDialog(onChosen func(dir string)) {
	fyne.Do(func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, mv.window)
				return
			}
			if uri == nil {
				return
			}
			onChosen(uri.Path())
		}, mv.window)
	})
}

// ShowAboutDialog displays application information.
func (mv *MainView) ShowAboutDialog(appName, version, description string) {
	fyne.Do(func() {
		content := container.NewVBox(
			widget.NewLabelWithStyle(appName, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabel(fmt.Sprintf("Version: %s", version)),
			widget.NewLabel(description),
			widget.NewSeparator(),
			widget.NewLabel("Shortcuts:\n"+
				"  Space          play / pause\n"+
				"  Left / Right   previous / next frame\n"+
				"  Shift+Left / Shift+Right   jump\n"+
				"  Ctrl+S         save\n"+
				"  Ctrl+Z         undo"),
		)
		dialog.ShowCustom("About", "Close", content, mv.window)
	})
}

package components

import (
	"image"
	"image/color"

	"zarafe/internal/annotation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	VideoAreaWidth  = 640
	VideoAreaHeight = 480
)

// VideoPanel shows the current frame with the active event label, the timeline slider and the
// transport controls.
type VideoPanel struct {
	container  *fyne.Container
	frame      *canvas.Image
	background *canvas.Rectangle
	eventLabel *canvas.Text
	frameLabel *widget.Label
	slider     *widget.Slider
	pupil      *PupilPlot

	playButton *widget.Button
	backButton *widget.Button
	prevButton *widget.Button
	nextButton *widget.Button
	fwdButton  *widget.Button

	jumpFrames int
	updating   bool
	lastSize   fyne.Size

	playHandler   func()
	stepHandler   func(int)
	seekHandler   func(int)
	resizeHandler func()
}

func NewVideoPanel(jumpFrames int) *VideoPanel {
	vp := &VideoPanel{jumpFrames: jumpFrames}
	vp.createComponents()
	vp.buildLayout()
	vp.setupEventHandlers()
	vp.Clear()
	return vp
}

func (vp *VideoPanel) createComponents() {
	vp.background = canvas.NewRectangle(color.Black)

	vp.frame = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	vp.frame.FillMode = canvas.ImageFillContain
	vp.frame.ScaleMode = canvas.ImageScaleFastest
	vp.frame.SetMinSize(fyne.NewSize(VideoAreaWidth/2, VideoAreaHeight/2))

	vp.eventLabel = canvas.NewText("", color.White)
	vp.eventLabel.TextStyle = fyne.TextStyle{Bold: true}
	vp.eventLabel.TextSize = theme.TextSize() * 1.3

	vp.frameLabel = widget.NewLabel("")
	vp.slider = widget.NewSlider(0, 1)
	vp.slider.Step = 1
	vp.pupil = NewPupilPlot()

	vp.backButton = widget.NewButtonWithIcon("", theme.MediaFastRewindIcon(), nil)
	vp.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	vp.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	vp.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	vp.fwdButton = widget.NewButtonWithIcon("", theme.MediaFastForwardIcon(), nil)
}

func (vp *VideoPanel) buildLayout() {
	screen := container.New(&resizeLayout{onResize: vp.onResize},
		vp.background,
		vp.frame,
		container.NewVBox(container.NewPadded(vp.eventLabel)),
	)

	controls := container.NewHBox(
		vp.backButton,
		vp.prevButton,
		vp.playButton,
		vp.nextButton,
		vp.fwdButton,
		widget.NewSeparator(),
		vp.frameLabel,
	)

	vp.container = container.NewBorder(
		nil,
		container.NewVBox(vp.pupil, vp.slider, controls),
		nil, nil,
		screen,
	)
}

func (vp *VideoPanel) setupEventHandlers() {
	vp.playButton.OnTapped = func() {
		if vp.playHandler != nil {
			vp.playHandler()
		}
	}
	step := func(delta int) func() {
		return func() {
			if vp.stepHandler != nil {
				vp.stepHandler(delta)
			}
		}
	}
	vp.backButton.OnTapped = step(-vp.jumpFrames)
	vp.prevButton.OnTapped = step(-1)
	vp.nextButton.OnTapped = step(1)
	vp.fwdButton.OnTapped = step(vp.jumpFrames)

	vp.slider.OnChanged = func(v float64) {
		if vp.updating || vp.seekHandler == nil {
			return
		}
		vp.seekHandler(int(v))
	}
}

func (vp *VideoPanel) onResize(size fyne.Size) {
	if size == vp.lastSize {
		return
	}
	vp.lastSize = size
	if vp.resizeHandler != nil {
		vp.resizeHandler()
	}
}

func (vp *VideoPanel) SetPlayHandler(handler func())    { vp.playHandler = handler }
func (vp *VideoPanel) SetStepHandler(handler func(int)) { vp.stepHandler = handler }
func (vp *VideoPanel) SetSeekHandler(handler func(int)) { vp.seekHandler = handler }
func (vp *VideoPanel) SetResizeHandler(handler func())  { vp.resizeHandler = handler }

// SetFrame shows a rendered frame. label is drawn over the top-left corner in labelColor.
func (vp *VideoPanel) SetFrame(img image.Image, label string, labelColor color.Color, info string, current, total int) {
	vp.frame.Image = img
	vp.frame.Refresh()

	vp.eventLabel.Text = label
	vp.eventLabel.Color = labelColor
	vp.eventLabel.Refresh()

	vp.frameLabel.SetText(info)
	vp.pupil.SetCurrent(current)

	vp.updating = true
	vp.slider.Max = float64(max(total-1, 1))
	vp.slider.SetValue(float64(current))
	vp.updating = false
}

// SetPupilData plots the per-frame pupil diameter of the loaded recording.
func (vp *VideoPanel) SetPupilData(series []float64, events []annotation.Event, colorOf func(string) color.RGBA) {
	vp.pupil.SetData(series, events, colorOf)
}

// SetPupilEvents updates the event spans shaded in the pupil plot.
func (vp *VideoPanel) SetPupilEvents(events []annotation.Event) {
	vp.pupil.SetEvents(events)
}

// SetPlaying switches the play button between play and pause.
func (vp *VideoPanel) SetPlaying(playing bool) {
	if playing {
		vp.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		vp.playButton.SetIcon(theme.MediaPlayIcon())
	}
}

func (vp *VideoPanel) SetEnabled(enabled bool) {
	for _, w := range []fyne.Disableable{vp.playButton, vp.backButton, vp.prevButton, vp.nextButton, vp.fwdButton, vp.slider} {
		if enabled {
			w.Enable()
		} else {
			w.Disable()
		}
	}
}

// Clear shows an empty screen and disables the controls.
func (vp *VideoPanel) Clear() {
	vp.frame.Image = image.NewRGBA(image.Rect(0, 0, 1, 1))
	vp.frame.Refresh()
	vp.eventLabel.Text = ""
	vp.eventLabel.Refresh()
	vp.frameLabel.SetText("No video loaded")
	vp.pupil.Clear()
	vp.updating = true
	vp.slider.SetValue(0)
	vp.updating = false
	vp.SetPlaying(false)
	vp.SetEnabled(false)
}

// BoxSize is the pixel size frames should be rendered at to fill the screen area.
func (vp *VideoPanel) BoxSize() (int, int) {
	size := vp.frame.Size()
	scale := float32(1)
	if c := fyne.CurrentApp().Driver().CanvasForObject(vp.frame); c != nil {
		scale = c.Scale()
	}
	return int(size.Width * scale), int(size.Height * scale)
}

func (vp *VideoPanel) GetContainer() *fyne.Container {
	return vp.container
}

// resizeLayout stacks its objects over the full area and reports size changes.
type resizeLayout struct {
	onResize func(fyne.Size)
}

func (l *resizeLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Resize(size)
		o.Move(fyne.NewPos(0, 0))
	}
	if l.onResize != nil {
		l.onResize(size)
	}
}

func (l *resizeLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var size fyne.Size
	for _, o := range objects {
		size = size.Max(o.MinSize())
	}
	return size
}

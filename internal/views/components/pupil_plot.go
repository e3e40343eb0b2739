package components

import (
	"image/color"

	"zarafe/internal/annotation"
	"zarafe/internal/overlay"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const pupilPlotHeight = 80

// PupilPlot draws the pupil diameter over the whole recording, shades the annotated events and
// marks the current frame.
type PupilPlot struct {
	widget.BaseWidget

	series  []float64
	events  []annotation.Event
	colorOf func(string) color.RGBA
	current int
}

func NewPupilPlot() *PupilPlot {
	p := &PupilPlot{}
	p.ExtendBaseWidget(p)
	return p
}

// SetData replaces the plotted series and events. series holds one value per frame.
func (p *PupilPlot) SetData(series []float64, events []annotation.Event, colorOf func(string) color.RGBA) {
	p.series = series
	p.events = events
	p.colorOf = colorOf
	p.Refresh()
}

// SetEvents updates the shaded spans only.
func (p *PupilPlot) SetEvents(events []annotation.Event) {
	p.events = events
	p.Refresh()
}

func (p *PupilPlot) SetCurrent(frame int) {
	if frame == p.current {
		return
	}
	p.current = frame
	p.Refresh()
}

func (p *PupilPlot) Clear() {
	p.series, p.events, p.current = nil, nil, 0
	p.Refresh()
}

func (p *PupilPlot) CreateRenderer() fyne.WidgetRenderer {
	r := &pupilPlotRenderer{
		plot:       p,
		background: canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground)),
		cursor:     canvas.NewLine(theme.Color(theme.ColorNameForeground)),
		empty:      canvas.NewText("No pupil data", theme.Color(theme.ColorNameDisabled)),
	}
	r.empty.TextSize = theme.CaptionTextSize()
	r.rebuild(p.Size())
	return r
}

type pupilPlotRenderer struct {
	plot       *PupilPlot
	background *canvas.Rectangle
	cursor     *canvas.Line
	empty      *canvas.Text
	objects    []fyne.CanvasObject
}

// rebuild regenerates the drawn objects for size. The objects depend on the data and the width,
// so they are recreated rather than moved.
func (r *pupilPlotRenderer) rebuild(size fyne.Size) {
	p := r.plot
	r.background.Resize(size)
	objects := []fyne.CanvasObject{r.background}

	total := len(p.series)
	for _, span := range overlay.EventSpans(p.events, total, size.Width) {
		c := color.RGBA{R: 123, G: 171, B: 61, A: 255}
		if p.colorOf != nil {
			c = p.colorOf(span.Name)
		}
		rect := canvas.NewRectangle(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 70})
		rect.Move(fyne.NewPos(span.X0, 0))
		rect.Resize(fyne.NewSize(max(span.X1-span.X0, 1), size.Height))
		objects = append(objects, rect)
	}

	lines := overlay.PupilLines(p.series, size.Width, size.Height)
	stroke := theme.Color(theme.ColorNamePrimary)
	for _, pts := range lines {
		for i := 1; i < len(pts); i++ {
			seg := canvas.NewLine(stroke)
			seg.StrokeWidth = 1.5
			seg.Position1 = fyne.NewPos(pts[i-1].X, pts[i-1].Y)
			seg.Position2 = fyne.NewPos(pts[i].X, pts[i].Y)
			objects = append(objects, seg)
		}
	}

	if len(lines) == 0 {
		r.empty.Move(fyne.NewPos(theme.Padding(), (size.Height-r.empty.MinSize().Height)/2))
		objects = append(objects, r.empty)
	} else {
		x := overlay.FrameX(p.current, total, size.Width)
		r.cursor.Position1 = fyne.NewPos(x, 0)
		r.cursor.Position2 = fyne.NewPos(x, size.Height)
		objects = append(objects, r.cursor)
	}
	r.objects = objects
}

func (r *pupilPlotRenderer) Layout(size fyne.Size) {
	r.rebuild(size)
}

func (r *pupilPlotRenderer) MinSize() fyne.Size {
	return fyne.NewSize(VideoAreaWidth/4, pupilPlotHeight)
}

func (r *pupilPlotRenderer) Refresh() {
	r.rebuild(r.plot.Size())
	canvas.Refresh(r.plot)
}

func (r *pupilPlotRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *pupilPlotRenderer) Destroy() {}

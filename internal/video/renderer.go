package video

import (
	"fmt"
	"image"
	"image/color"

	"zarafe/internal/annotation"
	"zarafe/internal/gaze"
	"zarafe/internal/opencv/conversion"
	"zarafe/internal/opencv/safe"
	"zarafe/internal/overlay"

	"gocv.io/x/gocv"
)

var gazeColor = color.RGBA{G: 255, A: 255}

// ColorFunc returns the display color of an event name.
type ColorFunc func(eventName string) color.RGBA

// Scene is everything drawn over one frame.
type Scene struct {
	Current int
	Events  []annotation.Event
	Gaze    []gaze.Point
	Color   ColorFunc
}

// Frame is a rendered frame ready for display.
type Frame struct {
	Image  *image.RGBA
	Event  annotation.Event
	Active bool
	Color  color.RGBA
}

type Renderer struct {
	dotRadius int
}

func NewRenderer(dotRadius int) *Renderer {
	if dotRadius <= 0 {
		dotRadius = 2
	}
	return &Renderer{dotRadius: dotRadius}
}

// Render scales src to fit boxW x boxH, outlines it when an event is active and draws the gaze
// samples. A non-positive box keeps the source size.
func (r *Renderer) Render(src *safe.Mat, scene Scene, boxW, boxH int) (Frame, error) {
	if err := safe.ValidateMatForOperation(src, "render"); err != nil {
		return Frame{}, err
	}

	srcW, srcH := src.Cols(), src.Rows()
	w, h := srcW, srcH
	if boxW > 0 && boxH > 0 {
		w, h = overlay.Fit(srcW, srcH, boxW, boxH)
	}
	if err := safe.ValidateDimensions(w, h, "render"); err != nil {
		return Frame{}, err
	}

	canvas := gocv.NewMat()
	if w == srcW && h == srcH {
		src.GetMat().CopyTo(&canvas)
	} else {
		gocv.Resize(src.GetMat(), &canvas, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
	}
	out, err := safe.Adopt(canvas)
	if err != nil {
		return Frame{}, fmt.Errorf("scale frame: %w", err)
	}
	defer out.Close()

	var result Frame
	offset := image.Point{}
	if ev, ok := overlay.Active(scene.Events, scene.Current); ok {
		result.Event, result.Active = ev, true
		if scene.Color != nil {
			result.Color = scene.Color(ev.Name)
		}
		bordered := gocv.NewMat()
		gocv.CopyMakeBorder(out.GetMat(), &bordered, 1, 1, 1, 1, gocv.BorderConstant, result.Color)
		if err := out.Replace(bordered); err != nil {
			return Frame{}, err
		}
		offset = image.Pt(1, 1)
	}

	dots := overlay.Scale(scene.Gaze, srcW, srcH, w, h)
	if len(dots) > 0 {
		err := out.With(func(m *gocv.Mat) error {
			for _, p := range dots {
				gocv.Circle(m, p.Add(offset), r.dotRadius, gazeColor, -1)
			}
			return nil
		})
		if err != nil {
			return Frame{}, err
		}
	}

	img, err := conversion.MatToImage(out)
	if err != nil {
		return Frame{}, fmt.Errorf("convert frame: %w", err)
	}
	result.Image = img
	return result, nil
}

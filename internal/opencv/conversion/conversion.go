// Package conversion turns decoded OpenCV frames into Go images for display.
package conversion

import (
	"fmt"
	"image"

	"zarafe/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MatToImage converts a BGR, BGRA or grayscale frame to an RGBA image.
func MatToImage(src *safe.Mat) (*image.RGBA, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}
	if err := safe.ValidateFrameChannels(src); err != nil {
		return nil, err
	}

	code, err := toRGBACode(src.Channels())
	if err != nil {
		return nil, err
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(src.GetMat(), &rgba, code)

	data, err := rgba.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("frame data access failed: %w", err)
	}

	rows, cols := rgba.Rows(), rgba.Cols()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	if len(data) < len(img.Pix) {
		return nil, fmt.Errorf("frame buffer too small: %d < %d", len(data), len(img.Pix))
	}
	copy(img.Pix, data)
	return img, nil
}

func toRGBACode(channels int) (gocv.ColorConversionCode, error) {
	switch channels {
	case 1:
		return gocv.ColorGrayToRGBA, nil
	case 3:
		return gocv.ColorBGRToRGBA, nil
	case 4:
		return gocv.ColorBGRAToRGBA, nil
	default:
		return 0, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

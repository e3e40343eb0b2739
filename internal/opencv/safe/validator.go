package safe

import (
	"fmt"
)

// maxDimension bounds frame sizes accepted from decoders.
const maxDimension = 16384

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("Mat is nil for operation: %s", operation)
	}
	if !mat.IsValid() {
		return fmt.Errorf("Mat is invalid for operation: %s", operation)
	}
	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}
	return ValidateDimensions(mat.Cols(), mat.Rows(), operation)
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}
	if width > maxDimension || height > maxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}
	return nil
}

// ValidateFrameChannels accepts the channel layouts a video decoder produces.
func ValidateFrameChannels(mat *Mat) error {
	switch c := mat.Channels(); c {
	case 1, 3, 4:
		return nil
	default:
		return fmt.Errorf("unsupported channel count: %d", c)
	}
}

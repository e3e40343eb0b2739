package components

import (
	"fmt"
	"strings"
)

func recordingCount(total, annotated int) string {
	switch total {
	case 0:
		return "No recordings"
	case 1:
		return fmt.Sprintf("1 recording, %d annotated", annotated)
	default:
		return fmt.Sprintf("%d recordings, %d annotated", total, annotated)
	}
}

func missingText(missing []string) string {
	if len(missing) == 0 {
		return ""
	}
	names := make([]string, len(missing))
	for i, m := range missing {
		names[i] = strings.ReplaceAll(m, "_", " ")
	}
	return "Required: " + strings.Join(names, ", ")
}

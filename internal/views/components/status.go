package components

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	readyText       = "Ready"
	noRecordingText = "No recording loaded"
)

// StatusBar shows the last action and details about the loaded recording.
type StatusBar struct {
	container     *fyne.Container
	statusLabel   *widget.Label
	recordingInfo *widget.Label
	gazeInfo      *widget.Label
}

func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.createComponents()
	sb.buildLayout()
	return sb
}

func (sb *StatusBar) createComponents() {
	sb.statusLabel = widget.NewLabel(readyText)
	sb.recordingInfo = widget.NewLabel(noRecordingText)
	sb.gazeInfo = widget.NewLabel("")
}

func (sb *StatusBar) buildLayout() {
	sb.container = container.NewHBox(
		sb.statusLabel,
		widget.NewSeparator(),
		sb.recordingInfo,
		widget.NewSeparator(),
		sb.gazeInfo,
	)
}

func (sb *StatusBar) SetStatus(status string) {
	sb.statusLabel.SetText(status)
}

func (sb *StatusBar) GetStatus() string {
	return sb.statusLabel.Text
}

// SetRecordingInfo describes the loaded video.
func (sb *StatusBar) SetRecordingInfo(name string, width, height int, fps float64) {
	if fps > 0 {
		sb.recordingInfo.SetText(fmt.Sprintf("%s: %dx%d, %.2f fps", name, width, height, fps))
		return
	}
	sb.recordingInfo.SetText(fmt.Sprintf("%s: %dx%d, unknown fps", name, width, height))
}

// SetGazeInfo shows how many gaze samples were loaded.
func (sb *StatusBar) SetGazeInfo(samples int) {
	if samples == 0 {
		sb.gazeInfo.SetText("No gaze data")
		return
	}
	sb.gazeInfo.SetText(fmt.Sprintf("Gaze: %d samples", samples))
}

func (sb *StatusBar) Reset() {
	sb.statusLabel.SetText(readyText)
	sb.recordingInfo.SetText(noRecordingText)
	sb.gazeInfo.SetText("")
}

func (sb *StatusBar) GetContainer() *fyne.Container {
	return sb.container
}

// ProgressBar shows the progress of a long-running import.
type ProgressBar struct {
	container   *fyne.Container
	progressBar *widget.ProgressBar
	stageLabel  *widget.Label
	visible     bool
}

func NewProgressBar() *ProgressBar {
	pb := &ProgressBar{}
	pb.createComponents()
	pb.buildLayout()
	return pb
}

func (pb *ProgressBar) createComponents() {
	pb.progressBar = widget.NewProgressBar()
	pb.stageLabel = widget.NewLabel("")
}

func (pb *ProgressBar) buildLayout() {
	pb.container = container.NewVBox(
		pb.stageLabel,
		pb.progressBar,
	)
	pb.container.Hide()
}

// SetProgress shows done out of total with the item currently being worked on.
func (pb *ProgressBar) SetProgress(stage string, done, total int) {
	value := 0.0
	if total > 0 {
		value = float64(done) / float64(total)
	}
	pb.progressBar.SetValue(min(max(value, 0), 1))
	pb.stageLabel.SetText(stage)
}

func (pb *ProgressBar) SetVisible(visible bool) {
	pb.visible = visible
	if visible {
		pb.container.Show()
	} else {
		pb.container.Hide()
	}
}

func (pb *ProgressBar) IsVisible() bool {
	return pb.visible
}

func (pb *ProgressBar) GetContainer() *fyne.Container {
	return pb.container
}

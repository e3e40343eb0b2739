// Package video decodes scene-camera videos with OpenCV and renders annotated frames.
package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zarafe/internal/logger"
	"zarafe/internal/media"
	"zarafe/internal/opencv/safe"
	"zarafe/internal/playback"

	"gocv.io/x/gocv"
)

var (
	ErrNotLoaded = errors.New("no video loaded")
	ErrReadFrame = errors.New("failed to read frame")
)

// Prober supplies stream metadata when OpenCV cannot report it.
type Prober interface {
	Probe(ctx context.Context, path string) (media.Info, error)
}

// Manager owns one open VideoCapture and its playback cursor.
type Manager struct {
	mu      sync.Mutex
	capture *gocv.VideoCapture
	cursor  *playback.Cursor
	path    string
	fps     float64
	width   int
	height  int
	prober  Prober
	log     logger.Logger
}

func NewManager(prober Prober, log logger.Logger) *Manager {
	return &Manager{
		cursor: playback.NewCursor(0),
		prober: prober,
		log:    log,
	}
}

// Open replaces the current video with path.
func (m *Manager) Open(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseLocked()

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: capture not opened", path)
	}

	frames := int(capture.Get(gocv.VideoCaptureFrameCount))
	fps := capture.Get(gocv.VideoCaptureFPS)
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))

	if (fps <= 0 || frames <= 0) && m.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		info, perr := m.prober.Probe(probeCtx, path)
		cancel()
		if perr != nil {
			m.log.Warning("video", "frame rate unavailable", map[string]interface{}{
				"path":  path,
				"error": perr.Error(),
			})
		} else {
			if fps <= 0 {
				fps = info.FPS
			}
			if frames <= 0 {
				frames = info.Frames
			}
		}
	}

	m.capture = capture
	m.path = path
	m.fps = fps
	m.width = width
	m.height = height
	m.cursor.Reset(frames)

	m.log.Info("video", "video opened", map[string]interface{}{
		"path":   path,
		"frames": frames,
		"fps":    fps,
		"width":  width,
		"height": height,
	})
	return nil
}

// Read decodes the frame under the cursor. The caller owns the returned Mat.
func (m *Manager) Read() (*safe.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.capture == nil {
		return nil, ErrNotLoaded
	}

	current := m.cursor.Current()
	if m.cursor.NeedsSeek() {
		m.capture.Set(gocv.VideoCapturePosFrames, float64(current))
	}

	frame := gocv.NewMat()
	if ok := m.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return nil, fmt.Errorf("%w %d", ErrReadFrame, current)
	}
	m.cursor.MarkRead()

	return safe.Adopt(frame)
}

func (m *Manager) Cursor() *playback.Cursor {
	return m.cursor
}

func (m *Manager) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps
}

func (m *Manager) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capture != nil
}

// Release closes the capture. The manager can be reopened afterwards.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseLocked()
}

func (m *Manager) releaseLocked() {
	if m.capture != nil {
		m.capture.Close()
		m.capture = nil
	}
	m.path = ""
	m.fps = 0
	m.width, m.height = 0, 0
	m.cursor.Reset(0)
}

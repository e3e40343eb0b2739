// Package media shells out to ffprobe and ffmpeg for video metadata and transcoding.
package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"zarafe/internal/logger"
)

var ErrToolMissing = errors.New("external tool not found")

// Info describes the first video stream of a file.
type Info struct {
	Codec    string
	Width    int
	Height   int
	FPS      float64
	Frames   int
	Duration time.Duration
}

type Tools struct {
	ffmpeg  string
	ffprobe string
	log     logger.Logger
}

func NewTools(ffmpeg, ffprobe string, log logger.Logger) *Tools {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &Tools{ffmpeg: ffmpeg, ffprobe: ffprobe, log: log}
}

// Available reports whether both binaries can be found.
func (t *Tools) Available() bool {
	_, errA := exec.LookPath(t.ffmpeg)
	_, errB := exec.LookPath(t.ffprobe)
	return errA == nil && errB == nil
}

func (t *Tools) Probe(ctx context.Context, path string) (Info, error) {
	if _, err := exec.LookPath(t.ffprobe); err != nil {
		return Info{}, fmt.Errorf("%w: %s", ErrToolMissing, t.ffprobe)
	}

	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,avg_frame_rate,r_frame_rate,nb_frames:format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe: %w", err)
	}

	info, err := ParseProbe(string(output))
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	t.log.Debug("media", "probed video", map[string]interface{}{
		"path":   path,
		"fps":    info.FPS,
		"frames": info.Frames,
		"codec":  info.Codec,
	})
	return info, nil
}

// ParseProbe reads ffprobe key=value output. The frame count falls back to duration * fps when
// the container does not store it.
func ParseProbe(output string) (Info, error) {
	var (
		info     Info
		avg, raw float64
		seconds  float64
	)

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), "=")
		if !ok || value == "N/A" {
			continue
		}
		switch key {
		case "codec_name":
			info.Codec = value
		case "width":
			info.Width, _ = strconv.Atoi(value)
		case "height":
			info.Height, _ = strconv.Atoi(value)
		case "avg_frame_rate":
			avg = parseRate(value)
		case "r_frame_rate":
			raw = parseRate(value)
		case "nb_frames":
			info.Frames, _ = strconv.Atoi(value)
		case "duration":
			seconds, _ = strconv.ParseFloat(value, 64)
		}
	}
	if err := sc.Err(); err != nil {
		return Info{}, err
	}

	info.FPS = avg
	if info.FPS <= 0 {
		info.FPS = raw
	}
	if info.FPS <= 0 {
		return Info{}, errors.New("no frame rate reported")
	}
	info.Duration = time.Duration(seconds * float64(time.Second))
	if info.Frames <= 0 && seconds > 0 {
		info.Frames = int(math.Round(seconds * info.FPS))
	}
	return info, nil
}

func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// Transcode re-encodes src to an H.264 mp4 at dst. A partial dst is removed on failure.
func (t *Tools) Transcode(ctx context.Context, src, dst string) error {
	if _, err := exec.LookPath(t.ffmpeg); err != nil {
		return fmt.Errorf("%w: %s", ErrToolMissing, t.ffmpeg)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-y",
		"-i", src,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-an",
		"-movflags", "+faststart",
		dst,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(dst)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, lastLines(string(output), 5))
	}

	t.log.Info("media", "transcoded video", map[string]interface{}{
		"src":      src,
		"dst":      dst,
		"duration": time.Since(start).String(),
	})
	return nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

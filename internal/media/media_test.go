package media

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/logger"
)

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want Info
	}{
		{
			name: "complete",
			out:  "codec_name=h264\nwidth=1920\nheight=1080\nr_frame_rate=25/1\navg_frame_rate=25/1\nnb_frames=750\nduration=30.000000\n",
			want: Info{Codec: "h264", Width: 1920, Height: 1080, FPS: 25, Frames: 750, Duration: 30 * time.Second},
		},
		{
			name: "frames from duration",
			out:  "codec_name=mjpeg\nr_frame_rate=30000/1001\navg_frame_rate=0/0\nnb_frames=N/A\nduration=10.010000\n",
			want: Info{Codec: "mjpeg", FPS: 30000.0 / 1001, Frames: 300, Duration: 10010 * time.Millisecond},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProbe(tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Codec, got.Codec)
			assert.Equal(t, tt.want.Width, got.Width)
			assert.Equal(t, tt.want.Height, got.Height)
			assert.InDelta(t, tt.want.FPS, got.FPS, 1e-9)
			assert.Equal(t, tt.want.Frames, got.Frames)
			assert.InDelta(t, float64(tt.want.Duration), float64(got.Duration), float64(time.Millisecond))
		})
	}
}

func TestParseProbeWithoutRate(t *testing.T) {
	_, err := ParseProbe("codec_name=h264\nnb_frames=10\n")
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	assert.Equal(t, 30.0, parseRate("30/1"))
	assert.Equal(t, 12.5, parseRate("12.5"))
	assert.Zero(t, parseRate("0/0"))
	assert.Zero(t, parseRate("abc"))
}

func TestMissingTools(t *testing.T) {
	tools := NewTools(filepath.Join(t.TempDir(), "no-ffmpeg"), filepath.Join(t.TempDir(), "no-ffprobe"), logger.Nop())
	assert.False(t, tools.Available())

	_, err := tools.Probe(context.Background(), "x.mp4")
	assert.ErrorIs(t, err, ErrToolMissing)

	err = tools.Transcode(context.Background(), "x.avi", "x.mp4")
	assert.ErrorIs(t, err, ErrToolMissing)
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 3))
}

// Package settings holds per-user application preferences. Values come from a TOML file under the user config
// directory and can be overridden by ZARAFE_* environment variables.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

const (
	appDirName   = "zarafe"
	fileName     = "settings.toml"
	stateDBName  = "state.db"
	envVarPrefix = "ZARAFE_"
)

type Settings struct {
	Log struct {
		Level  string `toml:"level" env:"LOG_LEVEL"`
		Format string `toml:"format" env:"LOG_FORMAT"`
	} `toml:"log"`

	Playback struct {
		JumpFrames    int `toml:"jump_frames" env:"JUMP_FRAMES"`
		GazeDotRadius int `toml:"gaze_dot_radius" env:"GAZE_DOT_RADIUS"`
	} `toml:"playback"`

	Annotation struct {
		UndoDepth int `toml:"undo_depth" env:"UNDO_DEPTH"`
	} `toml:"annotation"`

	Window struct {
		Width  float32 `toml:"width" env:"WINDOW_WIDTH"`
		Height float32 `toml:"height" env:"WINDOW_HEIGHT"`
	} `toml:"window"`

	Tools struct {
		FFmpeg  string `toml:"ffmpeg" env:"FFMPEG"`
		FFprobe string `toml:"ffprobe" env:"FFPROBE"`
	} `toml:"tools"`

	State struct {
		DBPath      string `toml:"db_path" env:"STATE_DB"`
		RecentLimit int    `toml:"recent_limit" env:"RECENT_LIMIT"`
		LastProject string `toml:"last_project"`
	} `toml:"state"`

	path string
}

// Default returns the built-in settings. The state database lives next to the settings file.
func Default(dir string) *Settings {
	s := &Settings{}
	s.Log.Level = "info"
	s.Log.Format = "console"
	s.Playback.JumpFrames = 10
	s.Playback.GazeDotRadius = 2
	s.Annotation.UndoDepth = 20
	s.Window.Width = 1200
	s.Window.Height = 800
	s.Tools.FFmpeg = "ffmpeg"
	s.Tools.FFprobe = "ffprobe"
	s.State.DBPath = filepath.Join(dir, stateDBName)
	s.State.RecentLimit = 10
	s.path = filepath.Join(dir, fileName)
	return s
}

// Dir is the per-user configuration directory for the application.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// Load reads settings from dir, writing defaults first if the file does not exist yet.
// Environment overrides are applied after the file, and are never written back.
func Load(dir string) (*Settings, error) {
	s := Default(dir)

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.Save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if err := toml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.path, err)
		}
	}

	if err := env.ParseWithOptions(s, env.Options{Prefix: envVarPrefix}); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	s.normalize()
	return s, nil
}

// Save writes the settings file, creating its directory when needed.
func (s *Settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Path is the settings file location.
func (s *Settings) Path() string {
	return s.path
}

func (s *Settings) normalize() {
	def := Default(filepath.Dir(s.path))
	if s.Playback.JumpFrames <= 0 {
		s.Playback.JumpFrames = def.Playback.JumpFrames
	}
	if s.Playback.GazeDotRadius <= 0 {
		s.Playback.GazeDotRadius = def.Playback.GazeDotRadius
	}
	if s.Annotation.UndoDepth <= 0 {
		s.Annotation.UndoDepth = def.Annotation.UndoDepth
	}
	if s.Window.Width < 800 {
		s.Window.Width = 800
	}
	if s.Window.Height < 600 {
		s.Window.Height = 600
	}
	if s.State.RecentLimit <= 0 {
		s.State.RecentLimit = def.State.RecentLimit
	}
	if s.State.DBPath == "" {
		s.State.DBPath = def.State.DBPath
	}
	if s.Tools.FFmpeg == "" {
		s.Tools.FFmpeg = def.Tools.FFmpeg
	}
	if s.Tools.FFprobe == "" {
		s.Tools.FFprobe = def.Tools.FFprobe
	}
}

// Package project loads and edits the per-project annotation configuration (zarafe_config.json).
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName     = "zarafe_config.json"
	YAMLConfigFileName = "zarafe_config.yaml"

	DefaultProjectName = "Video Annotation Tool"

	// TargetPlaceholder is substituted with each target id in "targets" event type templates.
	TargetPlaceholder = "{target}"
)

// Values of EventType.AppliesTo.
const (
	AppliesToTargets   = "targets"
	AppliesToValidator = "glassesValidator"
	AppliesToGlobal    = "global"
)

var (
	ErrConfigNotFound = errors.New("project configuration not found")
	ErrInvalidConfig  = errors.New("invalid project configuration")
)

var defaultColor = RGB{123, 171, 61}

// RGB is a color as stored in the config file: three 0-255 components.
type RGB []int

func (c RGB) RGBA() color.RGBA {
	if len(c) != 3 {
		return defaultColor.RGBA()
	}
	return color.RGBA{R: clamp8(c[0]), G: clamp8(c[1]), B: clamp8(c[2]), A: 0xff}
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}

type Info struct {
	Name string `json:"name" yaml:"name"`
}

type EventType struct {
	Name      string `json:"name" yaml:"name"`
	Color     RGB    `json:"color,omitempty" yaml:"color,omitempty"`
	AppliesTo string `json:"applies_to,omitempty" yaml:"applies_to,omitempty"`
}

type Target struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

type ColorRule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Color   RGB    `json:"color" yaml:"color"`
}

type Config struct {
	Project      Info        `json:"project" yaml:"project"`
	EventTypes   []EventType `json:"event_types" yaml:"event_types"`
	Targets      []Target    `json:"targets,omitempty" yaml:"targets,omitempty"`
	Conditions   []string    `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	ColorRules   []ColorRule `json:"color_rules,omitempty" yaml:"color_rules,omitempty"`
	DefaultColor RGB         `json:"default_color,omitempty" yaml:"default_color,omitempty"`

	expanded []string
	path     string
}

// Find returns the config file inside a project directory. JSON wins over YAML when both exist.
func Find(dir string) (string, error) {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
}

// Load reads a config file. YAML is used for .yaml/.yml, JSON otherwise.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, filepath.Base(path), err)
	}

	cfg.path = path
	cfg.expand()
	return cfg, nil
}

// Path is the file the config was loaded from or last saved to.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) expand() {
	expanded := make([]string, 0, len(c.EventTypes))
	for _, et := range c.EventTypes {
		if et.AppliesTo == AppliesToTargets {
			for _, t := range c.Targets {
				expanded = append(expanded, strings.ReplaceAll(et.Name, TargetPlaceholder, t.ID))
			}
			continue
		}
		expanded = append(expanded, et.Name)
	}
	c.expanded = expanded
}

// EventNames returns the expanded event type names in config order.
func (c *Config) EventNames() []string {
	out := make([]string, len(c.expanded))
	copy(out, c.expanded)
	return out
}

func (c *Config) ConditionOptions() []string {
	out := make([]string, len(c.Conditions))
	copy(out, c.Conditions)
	return out
}

func (c *Config) TargetList() []Target {
	out := make([]Target, len(c.Targets))
	copy(out, c.Targets)
	return out
}

func (c *Config) TargetIDs() []string {
	ids := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		ids = append(ids, t.ID)
	}
	return ids
}

func (c *Config) ProjectName() string {
	if c.Project.Name == "" {
		return DefaultProjectName
	}
	return c.Project.Name
}

// Color picks the display color for an event: the first color rule whose pattern is a substring
// of the name, otherwise the project default. An empty pattern matches every name.
func (c *Config) Color(eventName string) color.RGBA {
	for _, rule := range c.ColorRules {
		if strings.Contains(eventName, rule.Pattern) {
			return rule.Color.RGBA()
		}
	}

	if len(c.DefaultColor) == 3 {
		return c.DefaultColor.RGBA()
	}
	return defaultColor.RGBA()
}

// MarkerEventName is the name of the glassesValidator event type, or "" if the project has none.
func (c *Config) MarkerEventName() string {
	for _, et := range c.EventTypes {
		if et.AppliesTo == AppliesToValidator {
			return et.Name
		}
	}
	return ""
}

// IsMarkerInterval reports whether the event is persisted to markerInterval.tsv instead of events.csv.
func (c *Config) IsMarkerInterval(eventName string) bool {
	for _, et := range c.EventTypes {
		if et.AppliesTo == AppliesToValidator && strings.Contains(eventName, et.Name) {
			return true
		}
	}
	return false
}

// Validate checks the config is usable for annotation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Project.Name) == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidConfig)
	}
	if len(c.EventTypes) == 0 {
		return fmt.Errorf("%w: at least one event type is required", ErrInvalidConfig)
	}

	validators := 0
	for _, et := range c.EventTypes {
		if strings.TrimSpace(et.Name) == "" {
			return fmt.Errorf("%w: event type with empty name", ErrInvalidConfig)
		}
		if et.Color != nil && len(et.Color) != 3 {
			return fmt.Errorf("%w: event type %q color must have 3 components", ErrInvalidConfig, et.Name)
		}
		if et.AppliesTo == AppliesToValidator {
			validators++
		}
	}
	if validators > 1 {
		return fmt.Errorf("%w: only one %s event type is allowed", ErrInvalidConfig, AppliesToValidator)
	}

	for _, t := range c.Targets {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("%w: target with empty id", ErrInvalidConfig)
		}
	}

	c.expand()
	seen := make(map[string]struct{}, len(c.expanded))
	for _, name := range c.expanded {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate event type %q", ErrInvalidConfig, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Save writes the config as zarafe_config.json inside dir.
func (c *Config) Save(dir string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.DefaultColor) == 0 {
		c.DefaultColor = append(RGB(nil), defaultColor...)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	c.path = path
	return nil
}

// DirName turns a project name into the directory name used by Create.
func DirName(projectName string) string {
	name := strings.TrimSpace(projectName)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "/", "_")
}

// Create makes a new project directory under parent and writes cfg into it.
func Create(parent string, cfg *Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	dir := filepath.Join(parent, DirName(cfg.Project.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project directory: %w", err)
	}
	if err := cfg.Save(dir); err != nil {
		return "", err
	}
	return dir, nil
}

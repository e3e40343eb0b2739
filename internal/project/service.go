package project

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var ErrNoProject = errors.New("no project loaded")

const reloadDebounce = 200 * time.Millisecond

// Service tracks the open project and its configuration. It is safe for concurrent use.
type Service struct {
	mu     sync.RWMutex
	dir    string
	config *Config
}

func NewService() *Service {
	return &Service{}
}

// Open loads the project rooted at dir and makes it current.
func (s *Service) Open(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.dir = dir
	s.config = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Reload re-reads the current project's config file.
func (s *Service) Reload() (*Config, error) {
	s.mu.RLock()
	dir := s.dir
	s.mu.RUnlock()

	if dir == "" {
		return nil, ErrNoProject
	}
	return s.Open(dir)
}

// Replace swaps in an edited config after it has been saved to disk.
func (s *Service) Replace(dir string, cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
	s.config = cfg
}

func (s *Service) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Service) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config != nil
}

// ProjectName returns the loaded project's name, or the default title when nothing is open.
func (s *Service) ProjectName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return DefaultProjectName
	}
	return s.config.ProjectName()
}

// Watch reloads the config whenever its file changes on disk and passes the result to onChange.
// The project directory is watched rather than the file so editors that replace files are handled.
// Bursts of writes are coalesced. Watch blocks until ctx is cancelled.
func (s *Service) Watch(ctx context.Context, onChange func(*Config, error)) error {
	dir := s.Dir()
	if dir == "" {
		return ErrNoProject
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isConfigFile(ev.Name) || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, fmt.Errorf("watch config: %w", err))

		case <-timer.C:
			if s.Dir() != dir {
				// Another project was opened; the caller restarts Watch for it.
				return nil
			}
			cfg, err := s.Reload()
			onChange(cfg, err)
		}
	}
}

func isConfigFile(name string) bool {
	base := filepath.Base(name)
	return base == ConfigFileName || base == YAMLConfigFileName
}

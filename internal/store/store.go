// Package store persists application state that outlives a session: recently opened projects and
// the annotation status of each recording.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"zarafe/internal/logger"
)

// RecentProject is a project directory the user has opened.
type RecentProject struct {
	Path     string `gorm:"primaryKey"`
	Name     string
	OpenedAt time.Time `gorm:"index"`
}

// RecordingStatus records the last successful save of a recording.
type RecordingStatus struct {
	Dir        string `gorm:"primaryKey"`
	SessionID  string
	EventCount int
	Complete   bool
	SavedAt    time.Time
}

type Store struct {
	db  *gorm.DB
	log logger.Logger
	now func() time.Time
}

// Open opens or creates the SQLite database at path.
func Open(path string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&RecentProject{}, &RecordingStatus{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	log.Debug("store", "state db opened", map[string]interface{}{"path": path})
	return &Store{db: db, log: log, now: time.Now}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TouchProject records that the project at path was just opened.
func (s *Store) TouchProject(ctx context.Context, path, name string) error {
	p := RecentProject{Path: path, Name: name, OpenedAt: s.now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "opened_at"}),
	}).Create(&p).Error
}

// RecentProjects returns up to limit projects, newest first. Entries whose directory no longer
// exists are removed.
func (s *Store) RecentProjects(ctx context.Context, limit int) ([]RecentProject, error) {
	var all []RecentProject
	if err := s.db.WithContext(ctx).Order("opened_at DESC").Find(&all).Error; err != nil {
		return nil, err
	}

	var (
		out   []RecentProject
		stale []string
	)
	for _, p := range all {
		if _, err := os.Stat(p.Path); errors.Is(err, fs.ErrNotExist) {
			stale = append(stale, p.Path)
			continue
		}
		if limit <= 0 || len(out) < limit {
			out = append(out, p)
		}
	}

	if len(stale) > 0 {
		if err := s.db.WithContext(ctx).Where("path IN ?", stale).Delete(&RecentProject{}).Error; err != nil {
			return out, err
		}
		s.log.Debug("store", "pruned recent projects", map[string]interface{}{"count": len(stale)})
	}
	return out, nil
}

// ForgetProject removes a project from the recent list.
func (s *Store) ForgetProject(ctx context.Context, path string) error {
	return s.db.WithContext(ctx).Where("path = ?", path).Delete(&RecentProject{}).Error
}

// MarkSaved stores the outcome of saving a recording.
func (s *Store) MarkSaved(ctx context.Context, dir string, sessionID uuid.UUID, eventCount int, complete bool) error {
	st := RecordingStatus{
		Dir:        dir,
		SessionID:  sessionID.String(),
		EventCount: eventCount,
		Complete:   complete,
		SavedAt:    s.now(),
	}
	return s.db.WithContext(ctx).Save(&st).Error
}

// Statuses returns the stored status of each recording in dirs that has one.
func (s *Store) Statuses(ctx context.Context, dirs []string) (map[string]RecordingStatus, error) {
	out := make(map[string]RecordingStatus, len(dirs))
	if len(dirs) == 0 {
		return out, nil
	}

	var rows []RecordingStatus
	if err := s.db.WithContext(ctx).Where("dir IN ?", dirs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.Dir] = r
	}
	return out, nil
}

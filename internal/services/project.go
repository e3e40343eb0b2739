package services

import (
	"context"
	"fmt"
	"sync"

	"zarafe/internal/export"
	"zarafe/internal/importer"
	"zarafe/internal/logger"
	"zarafe/internal/project"
	"zarafe/internal/recording"
	"zarafe/internal/store"
)

// ProjectService owns the open project: its config, the recordings found in it and the
// persisted per-user state about both.
type ProjectService struct {
	projects    *project.Service
	store       *store.Store
	importer    *importer.Importer
	index       *recording.Index
	recentLimit int
	log         logger.Logger

	mu sync.Mutex
}

// NewProjectService creates a project service. st may be nil, in which case recent projects and
// saved statuses are not persisted.
func NewProjectService(projects *project.Service, st *store.Store, imp *importer.Importer, recentLimit int, log logger.Logger) *ProjectService {
	return &ProjectService{
		projects:    projects,
		store:       st,
		importer:    imp,
		index:       recording.NewIndex(nil),
		recentLimit: recentLimit,
		log:         log,
	}
}

// Open loads the project in dir and scans it for recordings.
func (ps *ProjectService) Open(ctx context.Context, dir string) (*project.Config, error) {
	cfg, err := ps.projects.Open(dir)
	if err != nil {
		return nil, err
	}

	if _, err := ps.Refresh(); err != nil {
		return cfg, err
	}

	if ps.store != nil {
		if err := ps.store.TouchProject(ctx, dir, cfg.ProjectName()); err != nil {
			ps.log.Warning("ProjectService", "could not record recent project", map[string]interface{}{
				"path":  dir,
				"error": err.Error(),
			})
		}
	}

	ps.log.Info("ProjectService", "project opened", map[string]interface{}{
		"path":       dir,
		"name":       cfg.ProjectName(),
		"recordings": ps.index.Len(),
	})
	return cfg, nil
}

// Create writes a new project under parent and opens it.
func (ps *ProjectService) Create(ctx context.Context, parent string, cfg *project.Config) (string, error) {
	dir, err := project.Create(parent, cfg)
	if err != nil {
		return "", err
	}
	if _, err := ps.Open(ctx, dir); err != nil {
		return dir, err
	}
	return dir, nil
}

// Update saves an edited config over the open project's one.
func (ps *ProjectService) Update(cfg *project.Config) error {
	dir := ps.projects.Dir()
	if dir == "" {
		return project.ErrNoProject
	}
	if err := cfg.Save(dir); err != nil {
		return err
	}
	ps.projects.Replace(dir, cfg)
	return nil
}

// Refresh rescans the project directory. The current selection is kept when the recording still exists.
func (ps *ProjectService) Refresh() ([]recording.Recording, error) {
	dir := ps.projects.Dir()
	if dir == "" {
		return nil, project.ErrNoProject
	}

	recs, err := recording.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("scan recordings: %w", err)
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	selected := ""
	if rec, ok := ps.index.At(ps.index.Current()); ok {
		selected = rec.Dir
	}
	ps.index.Reset(recs)
	if selected != "" {
		if i, ok := ps.index.Find(selected); ok {
			ps.index.SetCurrent(i)
		}
	}
	return recs, nil
}

func (ps *ProjectService) Config() *project.Config {
	return ps.projects.Current()
}

func (ps *ProjectService) Dir() string {
	return ps.projects.Dir()
}

func (ps *ProjectService) Loaded() bool {
	return ps.projects.Loaded()
}

func (ps *ProjectService) ProjectName() string {
	return ps.projects.ProjectName()
}

// Recordings returns the recording index of the open project.
func (ps *ProjectService) Recordings() *recording.Index {
	return ps.index
}

// Annotated reports, per recording directory, whether it has saved annotations. The state
// database is consulted first, falling back to the presence of events.csv.
func (ps *ProjectService) Annotated(ctx context.Context) map[string]bool {
	recs := ps.index.Items()
	out := make(map[string]bool, len(recs))

	var statuses map[string]store.RecordingStatus
	if ps.store != nil && len(recs) > 0 {
		dirs := make([]string, len(recs))
		for i, r := range recs {
			dirs[i] = r.Dir
		}
		var err error
		if statuses, err = ps.store.Statuses(ctx, dirs); err != nil {
			ps.log.Warning("ProjectService", "could not read recording statuses", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	for _, r := range recs {
		if st, ok := statuses[r.Dir]; ok && st.EventCount > 0 {
			out[r.Dir] = true
			continue
		}
		out[r.Dir] = r.HasEvents()
	}
	return out
}

// Recent lists recently opened projects that still exist, newest first.
func (ps *ProjectService) Recent(ctx context.Context) ([]store.RecentProject, error) {
	if ps.store == nil {
		return nil, nil
	}
	return ps.store.RecentProjects(ctx, ps.recentLimit)
}

// ForgetRecent drops path from the recent projects. The project folder is left alone.
func (ps *ProjectService) ForgetRecent(ctx context.Context, path string) error {
	if ps.store == nil {
		return nil
	}
	if err := ps.store.ForgetProject(ctx, path); err != nil {
		return fmt.Errorf("forget recent project: %w", err)
	}
	return nil
}

// Import copies glassesTools output from source into the open project and rescans it.
func (ps *ProjectService) Import(ctx context.Context, source, device string, progress importer.Progress) (int, error) {
	dir := ps.projects.Dir()
	if dir == "" {
		return 0, project.ErrNoProject
	}

	n, err := ps.importer.Import(ctx, source, dir, device, progress)
	if n > 0 {
		if _, rerr := ps.Refresh(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return n, err
}

// Export merges every recording's events.csv into the project summary file.
func (ps *ProjectService) Export() (export.Summary, error) {
	dir := ps.projects.Dir()
	if dir == "" {
		return export.Summary{}, project.ErrNoProject
	}
	summary, err := export.Summarize(dir, ps.index.Items())
	ps.log.Info("ProjectService", "summary exported", map[string]interface{}{
		"path":       summary.Path,
		"recordings": summary.Recordings,
		"rows":       summary.Rows,
	})
	return summary, err
}

// Watch reloads the project config when it changes on disk until ctx is cancelled.
func (ps *ProjectService) Watch(ctx context.Context, onChange func(*project.Config, error)) error {
	return ps.projects.Watch(ctx, onChange)
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zarafe/internal/logger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "state.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestRecentProjects(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	root := t.TempDir()
	a, b, c := filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")
	for _, d := range []string{a, b, c} {
		require.NoError(t, os.Mkdir(d, 0o755))
	}

	require.NoError(t, s.TouchProject(ctx, a, "A"))
	require.NoError(t, s.TouchProject(ctx, b, "B"))
	require.NoError(t, s.TouchProject(ctx, c, "C"))
	require.NoError(t, s.TouchProject(ctx, a, "A renamed"))

	got, err := s.RecentProjects(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].Path)
	assert.Equal(t, "A renamed", got[0].Name)
	assert.Equal(t, c, got[1].Path)

	require.NoError(t, os.Remove(c))
	got, err = s.RecentProjects(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	var count int64
	require.NoError(t, s.db.Model(&RecentProject{}).Count(&count).Error)
	assert.EqualValues(t, 2, count, "missing project pruned")

	require.NoError(t, s.ForgetProject(ctx, b))
	got, err = s.RecentProjects(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].Path)
}

func TestRecordingStatuses(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id := uuid.New()
	require.NoError(t, s.MarkSaved(ctx, "/p/r1", id, 3, false))
	require.NoError(t, s.MarkSaved(ctx, "/p/r1", id, 4, true))
	require.NoError(t, s.MarkSaved(ctx, "/p/r2", uuid.New(), 1, true))

	got, err := s.Statuses(ctx, []string{"/p/r1", "/p/r3"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got["/p/r1"].EventCount)
	assert.True(t, got["/p/r1"].Complete)
	assert.Equal(t, id.String(), got["/p/r1"].SessionID)

	empty, err := s.Statuses(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, s.MarkSaved(context.Background(), "/p/r1", uuid.New(), 2, true))
	require.NoError(t, s.Close())

	s, err = Open(path, logger.Nop())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Statuses(context.Background(), []string{"/p/r1"})
	require.NoError(t, err)
	assert.Contains(t, got, "/p/r1")
}

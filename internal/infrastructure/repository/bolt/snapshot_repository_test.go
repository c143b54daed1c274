package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepository(t *testing.T) *SnapshotRepository {
	t.Helper()

	repo, err := Open(filepath.Join(t.TempDir(), "snapshots", "livescore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSnapshotRepository_ListsNewestFirstWithinLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepository(t)
	base := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

	inserts := []snapshot.Snapshot{
		{ID: "s1", LeagueID: 35, Kind: "standings", Notification: "STANDINGS", Body: []byte(`{"a":1}`), PublishedAt: base},
		{ID: "t1", LeagueID: 35, Kind: "table", Notification: "TABLE", Body: []byte(`{}`), PublishedAt: base.Add(time.Minute)},
		{ID: "s2", LeagueID: 35, Kind: "standings", Notification: "STANDINGS", Body: []byte(`{"a":2}`), PublishedAt: base.Add(2 * time.Minute)},
		{ID: "x1", LeagueID: 36, Kind: "standings", Notification: "STANDINGS", Body: []byte(`{}`), PublishedAt: base.Add(3 * time.Minute)},
		{ID: "y1", LeagueID: 34, Kind: "standings", Notification: "STANDINGS", Body: []byte(`{}`), PublishedAt: base.Add(4 * time.Minute)},
	}
	for _, item := range inserts {
		require.NoError(t, repo.Insert(ctx, item))
	}

	all, err := repo.ListByLeague(ctx, 35, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"s2", "t1", "s1"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.JSONEq(t, `{"a":2}`, string(all[0].Body))
	assert.True(t, all[0].PublishedAt.Equal(base.Add(2*time.Minute)))

	standings, err := repo.ListByLeague(ctx, 35, "standings", 1)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, "s2", standings[0].ID)

	last, err := repo.ListByLeague(ctx, 36, "", 0)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "x1", last[0].ID)
}

func TestSnapshotRepository_DeleteOlderThan(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestRepository(t)
	base := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, snapshot.Snapshot{ID: "old", LeagueID: 35, Kind: "table", PublishedAt: base.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Insert(ctx, snapshot.Snapshot{ID: "older", LeagueID: 35, Kind: "table", PublishedAt: base.Add(-72 * time.Hour)}))
	require.NoError(t, repo.Insert(ctx, snapshot.Snapshot{ID: "fresh", LeagueID: 35, Kind: "table", PublishedAt: base}))

	removed, err := repo.DeleteOlderThan(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	items, err := repo.ListByLeague(ctx, 35, "table", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fresh", items[0].ID)
}

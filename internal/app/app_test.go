package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/config"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/publisher"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArchive_Backends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := logging.NewNop()

	repo, closer, err := buildArchive(ctx, config.Config{ArchiveBackend: config.ArchiveNone}, logger)
	require.NoError(t, err)
	assert.Nil(t, repo)
	assert.Nil(t, closer)

	repo, closer, err = buildArchive(ctx, config.Config{ArchiveBackend: config.ArchiveMemory, ArchiveMemoryCapacity: 10}, logger)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Nil(t, closer)

	repo, closer, err = buildArchive(ctx, config.Config{
		ArchiveBackend:  config.ArchiveBolt,
		ArchiveBoltPath: filepath.Join(t.TempDir(), "archive", "snapshots.db"),
		CacheEnabled:    true,
		CacheTTL:        time.Minute,
	}, logger)
	require.NoError(t, err)
	require.NotNil(t, repo)
	require.NotNil(t, closer)
	t.Cleanup(func() { _ = closer.Close() })

	require.NoError(t, repo.Insert(ctx, snapshot.Snapshot{
		ID:           "s1",
		Notification: "TABLE",
		LeagueID:     35,
		Kind:         "table",
		Body:         []byte(`{}`),
		PublishedAt:  time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC),
	}))
	items, err := repo.ListByLeague(ctx, 35, "", 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, _, err = buildArchive(ctx, config.Config{ArchiveBackend: "s3"}, logger)
	assert.Error(t, err)
}

func TestBuildPublisher_HubAlwaysReceivesEnvelopes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	hub := publisher.NewHub(nil)
	out, closers, err := buildPublisher(config.Config{}, hub, nil, logging.NewNop())
	require.NoError(t, err)
	assert.Empty(t, closers)

	require.NoError(t, out.Publish(ctx, feed.Envelope{
		Notification: feed.NotificationScorers,
		LeagueID:     35,
		Payload:      feed.ScorersPayload{LeagueID: 35},
		PublishedAt:  time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC),
	}))
	got, ok := hub.Latest(ctx, 35, feed.KindScorers)
	require.True(t, ok)
	assert.Equal(t, feed.NotificationScorers, got.Notification)
}

func TestBuildPublisher_RejectsInvalidWebhookURL(t *testing.T) {
	t.Parallel()

	_, _, err := buildPublisher(config.Config{WebhookEnabled: true, WebhookURL: "ftp://example.com"}, publisher.NewHub(nil), nil, logging.NewNop())
	assert.Error(t, err)
}

func TestNew_RequiresHTTPAddr(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.Config{}, logging.NewNop())
	assert.Error(t, err)
}

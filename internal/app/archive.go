package app

import (
	"context"
	"fmt"
	"io"

	"github.com/riskibarqy/soccer-livescore/internal/config"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/repository/bolt"
	cacherepo "github.com/riskibarqy/soccer-livescore/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/repository/postgres"
	basecache "github.com/riskibarqy/soccer-livescore/internal/platform/cache"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

// buildArchive returns the snapshot repository for the configured backend, or
// nil when archiving is disabled. The closer releases the backend handle.
func buildArchive(ctx context.Context, cfg config.Config, logger *logging.Logger) (snapshot.Repository, io.Closer, error) {
	var (
		repo   snapshot.Repository
		closer io.Closer
	)

	switch cfg.ArchiveBackend {
	case config.ArchiveNone, "":
		return nil, nil, nil
	case config.ArchiveMemory:
		repo = memory.NewSnapshotRepository(cfg.ArchiveMemoryCapacity)
	case config.ArchiveBolt:
		store, err := bolt.Open(cfg.ArchiveBoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt archive: %w", err)
		}
		repo, closer = store, store
	case config.ArchivePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, closer = postgres.NewSnapshotRepository(db), db
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}

	if cfg.CacheEnabled && cfg.ArchiveBackend != config.ArchiveMemory {
		repo = cacherepo.NewSnapshotRepository(repo, basecache.NewStore(cfg.CacheTTL))
	}

	logger.Info("snapshot archive enabled", "backend", cfg.ArchiveBackend, "cache", cfg.CacheEnabled)
	return repo, closer, nil
}

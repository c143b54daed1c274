package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// SnapshotRetention prunes archived envelopes older than maxAge.
type SnapshotRetention struct {
	repo   snapshot.Repository
	clock  Clock
	maxAge time.Duration
	logger *logging.Logger
}

func NewSnapshotRetention(repo snapshot.Repository, clock Clock, maxAge time.Duration, logger *logging.Logger) *SnapshotRetention {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SnapshotRetention{repo: repo, clock: clock, maxAge: maxAge, logger: logger}
}

func (s *SnapshotRetention) Prune(ctx context.Context) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SnapshotRetention.Prune")
	defer span.End()

	if s.repo == nil || s.maxAge <= 0 {
		return 0, nil
	}

	cutoff := s.clock.Now().Add(-s.maxAge)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots before %s: %w", cutoff.UTC().Format(time.RFC3339), err)
	}
	span.SetAttributes(attribute.Int64("snapshots.removed", removed))
	s.logger.InfoContext(ctx, "snapshot retention pass finished", "removed", removed, "cutoff", cutoff.UTC())
	return removed, nil
}

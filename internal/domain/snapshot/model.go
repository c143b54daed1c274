package snapshot

import (
	"context"
	"time"
)

// Snapshot is one archived envelope as it was published.
type Snapshot struct {
	ID           string
	Notification string
	LeagueID     int64
	Kind         string
	Body         []byte
	PublishedAt  time.Time
}

// Repository persists published envelopes for later inspection.
type Repository interface {
	Insert(ctx context.Context, item Snapshot) error
	ListByLeague(ctx context.Context, leagueID int64, kind string, limit int) ([]Snapshot, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
)

// SnapshotRepository keeps at most capacity snapshots per league, dropping
// the oldest first.
type SnapshotRepository struct {
	mu       sync.RWMutex
	byLeague map[int64][]snapshot.Snapshot
	capacity int
}

func NewSnapshotRepository(capacity int) *SnapshotRepository {
	if capacity <= 0 {
		capacity = 500
	}
	return &SnapshotRepository{byLeague: make(map[int64][]snapshot.Snapshot), capacity: capacity}
}

func (r *SnapshotRepository) Insert(_ context.Context, item snapshot.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.Body = append([]byte(nil), item.Body...)
	items := append(r.byLeague[item.LeagueID], item)
	sort.SliceStable(items, func(i, j int) bool { return items[i].PublishedAt.Before(items[j].PublishedAt) })
	if overflow := len(items) - r.capacity; overflow > 0 {
		items = append([]snapshot.Snapshot(nil), items[overflow:]...)
	}
	r.byLeague[item.LeagueID] = items
	return nil
}

// ListByLeague returns newest first. An empty kind matches every kind.
func (r *SnapshotRepository) ListByLeague(_ context.Context, leagueID int64, kind string, limit int) ([]snapshot.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind = strings.TrimSpace(kind)
	items := r.byLeague[leagueID]
	out := make([]snapshot.Snapshot, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if kind != "" && items[i].Kind != kind {
			continue
		}
		out = append(out, items[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *SnapshotRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for leagueID, items := range r.byLeague {
		kept := items[:0]
		for _, item := range items {
			if item.PublishedAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, item)
		}
		if len(kept) == 0 {
			delete(r.byLeague, leagueID)
			continue
		}
		r.byLeague[leagueID] = kept
	}
	return removed, nil
}

package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	basecache "github.com/riskibarqy/soccer-livescore/internal/platform/cache"
)

// CatalogRepository caches the competition catalog per language.
type CatalogRepository struct {
	next  competition.Catalog
	cache *basecache.Store
}

func NewCatalogRepository(next competition.Catalog, cache *basecache.Store) *CatalogRepository {
	return &CatalogRepository{next: next, cache: cache}
}

func (r *CatalogRepository) FetchCompetitions(ctx context.Context, language string) ([]competition.Competition, error) {
	key := "catalog:" + strings.ToLower(strings.TrimSpace(language))
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.FetchCompetitions(ctx, language)
		if err != nil {
			return nil, err
		}
		return append([]competition.Competition(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Competition)
	return append([]competition.Competition(nil), items...), nil
}

// SnapshotRepository caches league listings and drops them on every write
// that touches the league.
type SnapshotRepository struct {
	next  snapshot.Repository
	cache *basecache.Store
}

func NewSnapshotRepository(next snapshot.Repository, cache *basecache.Store) *SnapshotRepository {
	return &SnapshotRepository{next: next, cache: cache}
}

func snapshotLeaguePrefix(leagueID int64) string {
	return "snapshot:list:" + strconv.FormatInt(leagueID, 10) + ":"
}

func (r *SnapshotRepository) Insert(ctx context.Context, item snapshot.Snapshot) error {
	if err := r.next.Insert(ctx, item); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, snapshotLeaguePrefix(item.LeagueID))
	return nil
}

func (r *SnapshotRepository) ListByLeague(ctx context.Context, leagueID int64, kind string, limit int) ([]snapshot.Snapshot, error) {
	key := snapshotLeaguePrefix(leagueID) + strings.TrimSpace(kind) + ":" + strconv.Itoa(limit)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByLeague(ctx, leagueID, kind, limit)
		if err != nil {
			return nil, err
		}
		return append([]snapshot.Snapshot(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]snapshot.Snapshot)
	return append([]snapshot.Snapshot(nil), items...), nil
}

func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := r.next.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		r.cache.DeletePrefix(ctx, "snapshot:list:")
	}
	return removed, nil
}

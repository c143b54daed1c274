package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	qb "github.com/riskibarqy/soccer-livescore/internal/platform/querybuilder"
)

const snapshotTable = "feed_snapshots"

var snapshotSelectColumns = []string{
	"id",
	"notification",
	"league_id",
	"kind",
	"body",
	"published_at",
}

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

func (r *SnapshotRepository) Insert(ctx context.Context, item snapshot.Snapshot) error {
	query, args, err := qb.InsertModel(snapshotTable, snapshotTableModel{
		ID:           item.ID,
		Notification: item.Notification,
		LeagueID:     item.LeagueID,
		Kind:         item.Kind,
		Body:         string(item.Body),
		PublishedAt:  item.PublishedAt.UTC(),
	}, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert snapshot league=%d kind=%s: %w", item.LeagueID, item.Kind, err)
	}
	return nil
}

func (r *SnapshotRepository) ListByLeague(ctx context.Context, leagueID int64, kind string, limit int) ([]snapshot.Snapshot, error) {
	query, args, err := r.listQuery(leagueID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("build select snapshots by league query: %w", err)
	}

	var rows []snapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select snapshots by league: %w", err)
	}

	out := make([]snapshot.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, snapshot.Snapshot{
			ID:           row.ID,
			Notification: row.Notification,
			LeagueID:     row.LeagueID,
			Kind:         row.Kind,
			Body:         []byte(row.Body),
			PublishedAt:  row.PublishedAt.UTC(),
		})
	}
	return out, nil
}

func (r *SnapshotRepository) listQuery(leagueID int64, kind string, limit int) (string, []any, error) {
	conditions := []qb.Condition{qb.Eq("league_id", leagueID)}
	if kind = strings.TrimSpace(kind); kind != "" {
		conditions = append(conditions, qb.Eq("kind", kind))
	}
	return qb.Select(snapshotSelectColumns...).
		From(snapshotTable).
		Where(conditions...).
		OrderBy("published_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
}

func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := qb.DeleteFrom(snapshotTable).
		Where(qb.Expr("published_at < ?", cutoff.UTC())).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete snapshots query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots older than %s: %w", cutoff.UTC().Format(time.RFC3339), err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted snapshots: %w", err)
	}
	return removed, nil
}

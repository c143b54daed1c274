package postgres

import "time"

type snapshotTableModel struct {
	ID           string    `db:"id"`
	Notification string    `db:"notification"`
	LeagueID     int64     `db:"league_id"`
	Kind         string    `db:"kind"`
	Body         string    `db:"body"`
	PublishedAt  time.Time `db:"published_at"`
}

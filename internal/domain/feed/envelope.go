package feed

import (
	"context"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
)

// Notification names the envelopes delivered to the display client.
type Notification string

const (
	NotificationLeagues   Notification = "LEAGUES"
	NotificationTable     Notification = "TABLE"
	NotificationStandings Notification = "STANDINGS"
	NotificationScorers   Notification = "SCORERS"
)

func NotificationForKind(kind Kind) Notification {
	switch kind {
	case KindTable:
		return NotificationTable
	case KindScorers:
		return NotificationScorers
	default:
		return NotificationStandings
	}
}

// Kind reports the feed kind behind a per-competition notification.
func (n Notification) Kind() (Kind, bool) {
	switch n {
	case NotificationStandings:
		return KindStandings, true
	case NotificationTable:
		return KindTable, true
	case NotificationScorers:
		return KindScorers, true
	default:
		return "", false
	}
}

// Envelope is one named result pushed to the display client.
type Envelope struct {
	Notification Notification `json:"notification"`
	LeagueID     int64        `json:"leagueId,omitempty"`
	Payload      any          `json:"payload"`
	PublishedAt  time.Time    `json:"publishedAt"`
}

type LeaguesPayload struct {
	LeaguesList map[int64]competition.Competition `json:"leaguesList"`
}

type TablePayload struct {
	LeagueID int64    `json:"leagueId"`
	Table    []Record `json:"table"`
}

type StandingsPayload struct {
	LeagueID    int64      `json:"leagueId"`
	Standings   Document   `json:"standings"`
	NextRequest *time.Time `json:"nextRequest"`
}

type ScorersPayload struct {
	LeagueID int64    `json:"leagueId"`
	Scorers  []Record `json:"scorers"`
}

// WithNextRequest stamps the planned next poll on a standings envelope.
// Other envelopes are returned unchanged.
func (e Envelope) WithNextRequest(at time.Time) Envelope {
	payload, ok := e.Payload.(StandingsPayload)
	if !ok {
		return e
	}
	stamped := at.UTC()
	payload.NextRequest = &stamped
	e.Payload = payload
	return e
}

// Publisher delivers envelopes to the display client.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
}

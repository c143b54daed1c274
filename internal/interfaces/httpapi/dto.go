package httpapi

import (
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/usecase"
)

type configDTO struct {
	Settings     usecase.DisplaySettings   `json:"settings"`
	Competitions []competition.Competition `json:"competitions"`
	FeedCount    int                       `json:"feed_count,omitempty"`
	CatalogError string                    `json:"catalog_error,omitempty"`
}

type leaguesDTO struct {
	Items []competition.Competition `json:"items"`
}

type schedulesDTO struct {
	Items []usecase.FeedSchedule `json:"items"`
}

type snapshotDTO struct {
	ID           string    `json:"id"`
	Notification string    `json:"notification"`
	LeagueID     int64     `json:"league_id"`
	Kind         string    `json:"kind"`
	Payload      any       `json:"payload"`
	PublishedAt  time.Time `json:"published_at"`
}

type snapshotsDTO struct {
	Items []snapshotDTO `json:"items"`
}

func snapshotToDTO(item snapshot.Snapshot) snapshotDTO {
	var payload any
	if len(item.Body) > 0 {
		if err := sonic.Unmarshal(item.Body, &payload); err != nil {
			payload = string(item.Body)
		}
	}
	return snapshotDTO{
		ID:           item.ID,
		Notification: item.Notification,
		LeagueID:     item.LeagueID,
		Kind:         item.Kind,
		Payload:      payload,
		PublishedAt:  item.PublishedAt.UTC(),
	}
}

package publisher

import (
	"context"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

// Archive stores a copy of every per-competition envelope it sees before
// handing it to next.
type Archive struct {
	next   feed.Publisher
	repo   snapshot.Repository
	logger *logging.Logger
}

func NewArchive(next feed.Publisher, repo snapshot.Repository, logger *logging.Logger) *Archive {
	if logger == nil {
		logger = logging.Default()
	}
	return &Archive{next: next, repo: repo, logger: logger.Named("archive")}
}

func (a *Archive) Publish(ctx context.Context, envelope feed.Envelope) error {
	if a.repo != nil {
		if err := a.store(ctx, envelope); err != nil {
			a.logger.WarnContext(ctx, "archive envelope failed",
				"notification", string(envelope.Notification),
				"league_id", envelope.LeagueID,
				"error", err,
			)
		}
	}
	if a.next == nil {
		return nil
	}
	return a.next.Publish(ctx, envelope)
}

func (a *Archive) store(ctx context.Context, envelope feed.Envelope) error {
	kind, ok := envelope.Notification.Kind()
	if !ok {
		return nil
	}
	body, err := sonic.Marshal(envelope.Payload)
	if err != nil {
		return fmt.Errorf("marshal envelope payload: %w", err)
	}
	return a.repo.Insert(ctx, snapshot.Snapshot{
		ID:           uuid.NewString(),
		Notification: string(envelope.Notification),
		LeagueID:     envelope.LeagueID,
		Kind:         string(kind),
		Body:         body,
		PublishedAt:  envelope.PublishedAt,
	})
}

package app

import (
	"fmt"
	"io"

	"github.com/riskibarqy/soccer-livescore/external/redispub"
	"github.com/riskibarqy/soccer-livescore/external/webhook"
	"github.com/riskibarqy/soccer-livescore/internal/config"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/infrastructure/publisher"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

// buildPublisher composes the delivery chain: archive, then fan-out to the
// in-process hub and the optional webhook and redis sinks.
func buildPublisher(cfg config.Config, hub *publisher.Hub, archive snapshot.Repository, logger *logging.Logger) (feed.Publisher, []io.Closer, error) {
	sinks := []publisher.Sink{{Name: "hub", Publisher: hub}}
	var closers []io.Closer

	if cfg.WebhookEnabled {
		hook, err := webhook.NewPublisher(webhook.PublisherConfig{
			URL:            cfg.WebhookURL,
			Secret:         cfg.WebhookSecret,
			Timeout:        cfg.WebhookTimeout,
			CircuitBreaker: cfg.WebhookCircuitBreaker,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("build webhook publisher: %w", err)
		}
		sinks = append(sinks, publisher.Sink{Name: "webhook", Publisher: hook})
	}

	if cfg.RedisEnabled {
		client, err := redispub.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("build redis client: %w", err)
		}
		closers = append(closers, client)
		sinks = append(sinks, publisher.Sink{
			Name: "redis",
			Publisher: redispub.NewPublisher(client, redispub.Config{
				URL:       cfg.RedisURL,
				Prefix:    cfg.RedisChannelPrefix,
				LatestTTL: cfg.RedisLatestTTL,
			}, logger),
		})
	}

	var out feed.Publisher = publisher.NewFanout(logger, sinks...)
	if archive != nil {
		out = publisher.NewArchive(out, archive, logger)
	}
	return out, closers, nil
}

package redispub

import (
	"context"
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

const defaultPrefix = "livescore"

// commander is the slice of the redis client the publisher uses.
type commander interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type Config struct {
	URL       string
	Prefix    string
	LatestTTL time.Duration
}

// Publisher broadcasts envelopes on a redis channel per notification and keeps
// the last body of every channel under a plain key.
type Publisher struct {
	client    commander
	prefix    string
	latestTTL time.Duration
	logger    *logging.Logger
}

// NewClient parses a redis URL. rediss:// enables TLS.
func NewClient(rawURL string) (*redis.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, crerr.New("redis url is empty")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, crerr.Wrap(err, "parse redis url")
	}
	if strings.HasPrefix(rawURL, "rediss://") && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

func NewPublisher(client commander, cfg Config, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Publisher{
		client:    client,
		prefix:    prefix,
		latestTTL: cfg.LatestTTL,
		logger:    logger.Named("redispub"),
	}
}

// Channel is "<prefix>:<notification>" for LEAGUES and
// "<prefix>:<notification>:<league>" for per-competition envelopes.
func (p *Publisher) Channel(envelope feed.Envelope) string {
	channel := p.prefix + ":" + string(envelope.Notification)
	if envelope.LeagueID > 0 {
		channel += ":" + strconv.FormatInt(envelope.LeagueID, 10)
	}
	return channel
}

func (p *Publisher) Publish(ctx context.Context, envelope feed.Envelope) error {
	body, err := sonic.Marshal(envelope)
	if err != nil {
		return crerr.Wrap(err, "marshal envelope")
	}

	channel := p.Channel(envelope)
	if err := p.client.Set(ctx, channel+":latest", body, p.latestTTL).Err(); err != nil {
		return fmt.Errorf("store latest %s: %w", channel, err)
	}
	receivers, err := p.client.Publish(ctx, channel, body).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}

	p.logger.DebugContext(ctx, "redis envelope published", "channel", channel, "receivers", receivers)
	return nil
}

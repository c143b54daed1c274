package publisher

import (
	"context"
	"strconv"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	basecache "github.com/riskibarqy/soccer-livescore/internal/platform/cache"
)

const leaguesKey = "leagues"

// Hub keeps the last envelope per competition and kind so HTTP readers can
// poll it.
type Hub struct {
	cache *basecache.Store
}

func NewHub(cache *basecache.Store) *Hub {
	if cache == nil {
		cache = basecache.NewStore(0)
	}
	return &Hub{cache: cache}
}

func latestKey(leagueID int64, kind feed.Kind) string {
	return "latest:" + strconv.FormatInt(leagueID, 10) + ":" + string(kind)
}

func (h *Hub) Publish(ctx context.Context, envelope feed.Envelope) error {
	if envelope.Notification == feed.NotificationLeagues {
		h.cache.Set(ctx, leaguesKey, envelope)
		if payload, ok := envelope.Payload.(feed.LeaguesPayload); ok {
			h.forgetDropped(ctx, payload)
		}
		return nil
	}

	kind, ok := envelope.Notification.Kind()
	if !ok {
		return nil
	}
	h.cache.Set(ctx, latestKey(envelope.LeagueID, kind), envelope)
	return nil
}

// forgetDropped removes results of competitions that left the configuration.
func (h *Hub) forgetDropped(ctx context.Context, payload feed.LeaguesPayload) {
	for _, value := range h.cache.Collect(ctx, "latest:") {
		envelope, ok := value.(feed.Envelope)
		if !ok {
			continue
		}
		if _, kept := payload.LeaguesList[envelope.LeagueID]; kept {
			continue
		}
		h.cache.DeletePrefix(ctx, "latest:"+strconv.FormatInt(envelope.LeagueID, 10)+":")
	}
}

func (h *Hub) Latest(ctx context.Context, leagueID int64, kind feed.Kind) (feed.Envelope, bool) {
	value, ok := h.cache.Get(ctx, latestKey(leagueID, kind))
	if !ok {
		return feed.Envelope{}, false
	}
	envelope, ok := value.(feed.Envelope)
	return envelope, ok
}

func (h *Hub) Leagues(ctx context.Context) (feed.Envelope, bool) {
	value, ok := h.cache.Get(ctx, leaguesKey)
	if !ok {
		return feed.Envelope{}, false
	}
	envelope, ok := value.(feed.Envelope)
	return envelope, ok
}

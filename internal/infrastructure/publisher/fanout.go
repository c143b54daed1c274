package publisher

import (
	"context"
	"fmt"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// Sink is a named publisher target.
type Sink struct {
	Name      string
	Publisher feed.Publisher
}

// Fanout delivers every envelope to all sinks concurrently. One failing sink
// does not keep the others from receiving the envelope.
type Fanout struct {
	sinks  []Sink
	logger *logging.Logger
}

func NewFanout(logger *logging.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	kept := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink.Publisher != nil {
			kept = append(kept, sink)
		}
	}
	return &Fanout{sinks: kept, logger: logger.Named("fanout")}
}

func (f *Fanout) Publish(ctx context.Context, envelope feed.Envelope) error {
	if len(f.sinks) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(len(f.sinks))
	for _, sink := range f.sinks {
		p.Go(func(ctx context.Context) error {
			if err := sink.Publisher.Publish(ctx, envelope); err != nil {
				f.logger.WarnContext(ctx, "sink publish failed",
					"sink", sink.Name,
					"notification", string(envelope.Notification),
					"league_id", envelope.LeagueID,
					"error", err,
				)
				return fmt.Errorf("sink %s: %w", sink.Name, err)
			}
			return nil
		})
	}
	return p.Wait()
}

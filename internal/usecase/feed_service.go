package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// FeedSource reads the provider documents behind each feed kind.
type FeedSource interface {
	FetchRound(ctx context.Context, competitionID int64, round int, language string) (feed.Document, error)
	FetchTable(ctx context.Context, competitionID int64, language string) (feed.Document, error)
	FetchScorers(ctx context.Context, competitionID int64, language string) (feed.Document, error)
}

// Enricher decorates a standings document in place.
type Enricher interface {
	Enrich(ctx context.Context, competitionID int64, language string, doc feed.Document) EnrichResult
}

// FeedService runs one poll sequence: fetch, plan, enrich, publish.
type FeedService struct {
	source    FeedSource
	enricher  Enricher
	publisher feed.Publisher
	clock     Clock
	logger    *logging.Logger
}

func NewFeedService(source FeedSource, enricher Enricher, publisher feed.Publisher, clock Clock, logger *logging.Logger) *FeedService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FeedService{
		source:    source,
		enricher:  enricher,
		publisher: publisher,
		clock:     clock,
		logger:    logger.Named("feed"),
	}
}

func (s *FeedService) Poll(ctx context.Context, target FeedTarget) (PollPlan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FeedService.Poll",
		attribute.Int64("competition.id", target.Competition.ID),
		attribute.String("feed.kind", string(target.Kind)),
	)
	defer span.End()

	switch target.Kind {
	case feed.KindStandings:
		return s.pollStandings(ctx, target)
	case feed.KindTable:
		return s.pollRecords(ctx, target, s.source.FetchTable, feed.RecordTable)
	case feed.KindScorers:
		return s.pollRecords(ctx, target, s.source.FetchScorers, feed.RecordScorers)
	default:
		return PollPlan{}, fmt.Errorf("%w: unknown feed kind %q", ErrInvalidInput, target.Kind)
	}
}

func (s *FeedService) pollStandings(ctx context.Context, target FeedTarget) (PollPlan, error) {
	leagueID := target.Competition.ID
	doc, err := s.source.FetchRound(ctx, leagueID, 0, target.Language)
	if err != nil {
		return PollPlan{}, fmt.Errorf("fetch standings competition=%d: %w", leagueID, err)
	}

	now := s.clock.Now()
	plan := PlanStandings(doc, now)

	if target.Details && s.enricher != nil {
		result := s.enricher.Enrich(ctx, leagueID, target.Language, doc)
		s.logger.DebugContext(ctx, "standings enriched",
			"competition", target.Competition.Label(),
			"enriched", result.Enriched,
			"failed", result.Failed,
		)
	}

	envelope := feed.Envelope{
		Notification: feed.NotificationStandings,
		LeagueID:     leagueID,
		Payload:      feed.StandingsPayload{LeagueID: leagueID, Standings: doc},
		PublishedAt:  s.clock.Now().UTC(),
	}
	if !plan.Stop {
		envelope = envelope.WithNextRequest(plan.NextPollAt)
	}
	if err := s.publish(ctx, envelope); err != nil {
		return PollPlan{}, err
	}
	return plan, nil
}

type fetchFunc func(ctx context.Context, competitionID int64, language string) (feed.Document, error)

func (s *FeedService) pollRecords(ctx context.Context, target FeedTarget, fetch fetchFunc, recordType string) (PollPlan, error) {
	leagueID := target.Competition.ID
	doc, err := fetch(ctx, leagueID, target.Language)
	if err != nil {
		return PollPlan{}, fmt.Errorf("fetch %s competition=%d: %w", target.Kind, leagueID, err)
	}

	now := s.clock.Now()
	records := doc.RecordsOfType(recordType)

	envelope := feed.Envelope{
		Notification: feed.NotificationForKind(target.Kind),
		LeagueID:     leagueID,
		PublishedAt:  now.UTC(),
	}
	if target.Kind == feed.KindTable {
		envelope.Payload = feed.TablePayload{LeagueID: leagueID, Table: records}
	} else {
		envelope.Payload = feed.ScorersPayload{LeagueID: leagueID, Scorers: records}
	}
	if err := s.publish(ctx, envelope); err != nil {
		return PollPlan{}, err
	}
	return PlanHint(doc, now), nil
}

// publish drops the envelope when the owning schedule was torn down while the
// poll was in flight. Sink failures are logged only.
func (s *FeedService) publish(ctx context.Context, envelope feed.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, envelope); err != nil {
		s.logger.WarnContext(ctx, "publish envelope failed",
			"notification", string(envelope.Notification),
			"league_id", envelope.LeagueID,
			"error", err,
		)
	}
	return nil
}

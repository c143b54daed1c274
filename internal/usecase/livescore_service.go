package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/snapshot"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

// FeedScheduler is the part of RefreshScheduler the service drives.
type FeedScheduler interface {
	Reset(ctx context.Context) error
	Start(ctx context.Context, targets []FeedTarget) error
	Schedules(ctx context.Context) ([]FeedSchedule, error)
}

// LatestReader serves the last envelope published per competition and kind.
type LatestReader interface {
	Latest(ctx context.Context, leagueID int64, kind feed.Kind) (feed.Envelope, bool)
}

type ConfigureResult struct {
	Settings     DisplaySettings           `json:"settings"`
	Competitions []competition.Competition `json:"competitions"`
	FeedCount    int                       `json:"feed_count"`
	CatalogError string                    `json:"catalog_error,omitempty"`
}

// LivescoreService applies display configurations and answers read queries.
type LivescoreService struct {
	registry  *CompetitionRegistry
	scheduler FeedScheduler
	publisher feed.Publisher
	latest    LatestReader
	snapshots snapshot.Repository
	clock     Clock
	logger    *logging.Logger

	mu           sync.Mutex
	settings     DisplaySettings
	competitions map[int64]competition.Competition
}

func NewLivescoreService(
	registry *CompetitionRegistry,
	scheduler FeedScheduler,
	publisher feed.Publisher,
	latest LatestReader,
	snapshots snapshot.Repository,
	clock Clock,
	logger *logging.Logger,
) *LivescoreService {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LivescoreService{
		registry:     registry,
		scheduler:    scheduler,
		publisher:    publisher,
		latest:       latest,
		snapshots:    snapshots,
		clock:        clock,
		logger:       logger.Named("livescore"),
		settings:     DisplaySettings{Language: DefaultLanguage},
		competitions: make(map[int64]competition.Competition),
	}
}

// Configure replaces the running configuration. Every deadline is cancelled
// before the catalog lookup and the LEAGUES envelope is published even when
// the lookup fails.
func (s *LivescoreService) Configure(ctx context.Context, input DisplaySettings) (ConfigureResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LivescoreService.Configure")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := input.Normalize()
	if err := s.scheduler.Reset(ctx); err != nil {
		return ConfigureResult{}, fmt.Errorf("reset scheduler: %w", err)
	}

	result := ConfigureResult{Settings: settings}
	resolution, err := s.registry.Resolve(ctx, settings)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve competitions failed", "leagues", len(settings.Leagues), "error", err)
		result.CatalogError = err.Error()
		resolution = Resolution{Competitions: map[int64]competition.Competition{}}
	}

	s.settings = settings
	s.competitions = resolution.Competitions
	result.Competitions = sortedCompetitions(resolution.Competitions)
	result.FeedCount = len(resolution.Targets)

	if s.publisher != nil {
		envelope := feed.Envelope{
			Notification: feed.NotificationLeagues,
			Payload:      feed.LeaguesPayload{LeaguesList: resolution.Competitions},
			PublishedAt:  s.clock.Now().UTC(),
		}
		if err := s.publisher.Publish(ctx, envelope); err != nil {
			s.logger.WarnContext(ctx, "publish leagues failed", "error", err)
		}
	}

	if err := s.scheduler.Start(ctx, resolution.Targets); err != nil {
		return result, fmt.Errorf("start feeds: %w", err)
	}

	s.logger.InfoContext(ctx, "configuration applied",
		"language", settings.Language,
		"requested", len(settings.Leagues),
		"resolved", len(resolution.Competitions),
		"feeds", result.FeedCount,
	)
	return result, nil
}

func (s *LivescoreService) Settings() DisplaySettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *LivescoreService) Competitions() []competition.Competition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedCompetitions(s.competitions)
}

func (s *LivescoreService) Schedules(ctx context.Context) ([]FeedSchedule, error) {
	return s.scheduler.Schedules(ctx)
}

func (s *LivescoreService) Latest(ctx context.Context, leagueID int64, kind feed.Kind) (feed.Envelope, error) {
	if leagueID <= 0 {
		return feed.Envelope{}, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}
	if s.latest == nil {
		return feed.Envelope{}, fmt.Errorf("%w: league=%d kind=%s", ErrNotFound, leagueID, kind)
	}
	envelope, ok := s.latest.Latest(ctx, leagueID, kind)
	if !ok {
		return feed.Envelope{}, fmt.Errorf("%w: league=%d kind=%s", ErrNotFound, leagueID, kind)
	}
	return envelope, nil
}

func (s *LivescoreService) Snapshots(ctx context.Context, leagueID int64, kind string, limit int) ([]snapshot.Snapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LivescoreService.Snapshots")
	defer span.End()

	if leagueID <= 0 {
		return nil, fmt.Errorf("%w: league id must be greater than zero", ErrInvalidInput)
	}
	if s.snapshots == nil {
		return []snapshot.Snapshot{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := s.snapshots.ListByLeague(ctx, leagueID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots league=%d: %w", leagueID, err)
	}
	return items, nil
}

func sortedCompetitions(items map[int64]competition.Competition) []competition.Competition {
	out := make([]competition.Competition, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

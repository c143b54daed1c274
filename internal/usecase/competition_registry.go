package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

// Resolution is the outcome of one catalog lookup.
type Resolution struct {
	Competitions map[int64]competition.Competition
	Targets      []FeedTarget
}

// CompetitionRegistry matches configured ids against the provider catalog
// and derives the feeds to schedule.
type CompetitionRegistry struct {
	catalog competition.Catalog
	logger  *logging.Logger
}

func NewCompetitionRegistry(catalog competition.Catalog, logger *logging.Logger) *CompetitionRegistry {
	if logger == nil {
		logger = logging.Default()
	}
	return &CompetitionRegistry{catalog: catalog, logger: logger.Named("registry")}
}

// Resolve keeps the configured competitions present in the catalog. Ids
// missing from the catalog are dropped without error.
func (r *CompetitionRegistry) Resolve(ctx context.Context, settings DisplaySettings) (Resolution, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionRegistry.Resolve")
	defer span.End()

	resolution := Resolution{Competitions: make(map[int64]competition.Competition)}
	if len(settings.Leagues) == 0 {
		return resolution, nil
	}

	catalog, err := r.catalog.FetchCompetitions(ctx, settings.Language)
	if err != nil {
		return resolution, fmt.Errorf("%w: fetch competitions: %v", ErrDependencyUnavailable, err)
	}

	byID := make(map[int64]competition.Competition, len(catalog))
	for _, item := range catalog {
		if item.Validate() != nil {
			continue
		}
		byID[item.ID] = item
	}

	for _, id := range settings.Leagues {
		item, ok := byID[id]
		if !ok {
			r.logger.DebugContext(ctx, "competition not in catalog", "competition_id", id)
			continue
		}
		resolution.Competitions[id] = item
		resolution.Targets = append(resolution.Targets, TargetsFor(item, settings)...)
	}
	return resolution, nil
}

// TargetsFor lists the feeds of one competition. Standings always run.
func TargetsFor(item competition.Competition, settings DisplaySettings) []FeedTarget {
	base := FeedTarget{Competition: item, Language: settings.Language}

	standings := base
	standings.Kind = feed.KindStandings
	standings.Details = settings.ShowStandings && settings.ShowDetails
	out := []FeedTarget{standings}

	if settings.ShowTables && item.HasTable {
		table := base
		table.Kind = feed.KindTable
		out = append(out, table)
	}
	if settings.ShowScorers && item.HasScorers {
		scorers := base
		scorers.Kind = feed.KindScorers
		out = append(out, scorers)
	}
	return out
}

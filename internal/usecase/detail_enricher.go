package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/fixture"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

// MatchDetailsSource fetches the incident document of one match.
type MatchDetailsSource interface {
	FetchMatchDetails(ctx context.Context, competitionID, matchID int64, language string) (feed.Document, error)
}

// Info items of these types are never shown.
var hiddenInfoTypes = map[string]struct{}{
	"stream":    {},
	"promotion": {},
}

type EnrichResult struct {
	Enriched int
	Failed   int
}

// DetailEnricher attaches details and match_info to every pending match of a
// standings document.
type DetailEnricher struct {
	source MatchDetailsSource
	pool   *ants.Pool
	logger *logging.Logger
}

func NewDetailEnricher(source MatchDetailsSource, workers int, logger *logging.Logger) (*DetailEnricher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create detail worker pool: %w", err)
	}
	return &DetailEnricher{
		source: source,
		pool:   pool,
		logger: logger.Named("enricher"),
	}, nil
}

func (e *DetailEnricher) Close() {
	if e == nil || e.pool == nil {
		return
	}
	e.pool.Release()
}

type matchDetail struct {
	details   any
	matchInfo []any
	failed    bool
}

type detailJob struct {
	match   map[string]any
	matchID int64
}

// Enrich looks up every non-terminal match of doc and writes the results into
// the match objects once all lookups are done. A failed lookup leaves empty
// lists on that match only.
func (e *DetailEnricher) Enrich(ctx context.Context, competitionID int64, language string, doc feed.Document) EnrichResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.DetailEnricher.Enrich")
	defer span.End()

	jobs := make([]detailJob, 0)
	for _, record := range doc.RecordsOfType(feed.RecordMatches) {
		for _, item := range fixture.MatchRecords(record) {
			if fixture.IsTerminalStatus(int(fixture.Int64(item["status"]))) {
				continue
			}
			jobs = append(jobs, detailJob{match: item, matchID: fixture.Int64(item["match_id"])})
		}
	}
	if len(jobs) == 0 {
		return EnrichResult{}
	}

	results := make([]matchDetail, len(jobs))
	var failed atomic.Int32
	var workers sync.WaitGroup
	for i, job := range jobs {
		workers.Add(1)
		if err := e.pool.Submit(func() {
			defer workers.Done()
			results[i] = e.lookup(ctx, competitionID, job.matchID, language)
			if results[i].failed {
				failed.Add(1)
			}
		}); err != nil {
			workers.Done()
			e.logger.WarnContext(ctx, "submit detail lookup failed", "match_id", job.matchID, "error", err)
			results[i] = emptyDetail()
			failed.Add(1)
		}
	}
	workers.Wait()

	for i, job := range jobs {
		job.match["details"] = results[i].details
		job.match["match_info"] = results[i].matchInfo
	}

	return EnrichResult{
		Enriched: len(jobs) - int(failed.Load()),
		Failed:   int(failed.Load()),
	}
}

func (e *DetailEnricher) lookup(ctx context.Context, competitionID, matchID int64, language string) matchDetail {
	doc, err := e.source.FetchMatchDetails(ctx, competitionID, matchID, language)
	if err != nil {
		e.logger.WarnContext(ctx, "match details lookup failed",
			"competition_id", competitionID,
			"match_id", matchID,
			"error", err,
		)
		return emptyDetail()
	}
	return matchDetail{
		details:   firstDetails(doc),
		matchInfo: visibleInfoItems(doc),
	}
}

func emptyDetail() matchDetail {
	return matchDetail{details: []any{}, matchInfo: []any{}, failed: true}
}

func firstDetails(doc feed.Document) any {
	records := doc.RecordsOfType(feed.RecordDetails)
	if len(records) == 0 {
		return []any{}
	}
	return records[0][feed.RecordDetails]
}

func visibleInfoItems(doc feed.Document) []any {
	out := make([]any, 0)
	records := doc.RecordsOfType(feed.RecordMatchInfo)
	if len(records) == 0 {
		return out
	}
	info, _ := records[0][feed.RecordMatchInfo].(map[string]any)
	items, _ := info["info_items"].([]any)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		infoType, _ := entry["info_type"].(string)
		if _, hidden := hiddenInfoTypes[infoType]; hidden {
			continue
		}
		out = append(out, entry)
	}
	return out
}

package fixture

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
)

// Provider status codes of concluded matches.
const (
	StatusFinished          = 60
	StatusFinishedExtraTime = 70
	StatusFinishedPenalties = 90
	StatusAbandoned         = 100
	StatusCancelled         = 110
	StatusAwarded           = 120
)

// Match is one fixture as read from a matches record.
type Match struct {
	ID      int64
	Kickoff int64
	Status  int
}

func IsTerminalStatus(status int) bool {
	switch status {
	case StatusFinished, StatusFinishedExtraTime, StatusFinishedPenalties,
		StatusAbandoned, StatusCancelled, StatusAwarded:
		return true
	default:
		return false
	}
}

func (m Match) IsTerminal() bool {
	return IsTerminalStatus(m.Status)
}

// Round is the schedule of one entry of rounds_detailed. Zero bounds mean
// the provider did not publish them.
type Round struct {
	Index         int
	ScheduleStart int64
	ScheduleEnd   int64
}

func (r Round) Scheduled() bool {
	return r.ScheduleStart != 0 || r.ScheduleEnd != 0
}

// RoundAt reads rounds_detailed[index]; ok is false when the entry is missing.
func RoundAt(doc feed.Document, index int) (Round, bool) {
	if index < 0 || index >= len(doc.RoundsDetailed) || doc.RoundsDetailed[index] == nil {
		return Round{}, false
	}
	record := doc.RoundsDetailed[index]
	return Round{
		Index:         index,
		ScheduleStart: Int64(record["schedule_start"]),
		ScheduleEnd:   Int64(record["schedule_end"]),
	}, true
}

// CurrentRound is rounds_detailed[current_round-1].
func CurrentRound(doc feed.Document) (Round, bool) {
	return RoundAt(doc, doc.CurrentRound-1)
}

// NextRound is rounds_detailed[current_round].
func NextRound(doc feed.Document) (Round, bool) {
	return RoundAt(doc, doc.CurrentRound)
}

// Matches flattens every matches record of the document. The kickoff comes
// from the enclosing record's time.
func Matches(doc feed.Document) []Match {
	out := make([]Match, 0)
	for _, record := range doc.RecordsOfType(feed.RecordMatches) {
		kickoff := Int64(record["time"])
		for _, item := range MatchRecords(record) {
			out = append(out, Match{
				ID:      Int64(item["match_id"]),
				Kickoff: kickoff,
				Status:  int(Int64(item["status"])),
			})
		}
	}
	return out
}

// MatchRecords returns the raw match objects of a matches record. The maps
// are shared with the document so callers may attach fields in place.
func MatchRecords(record feed.Record) []map[string]any {
	items, _ := record["matches"].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if value, ok := item.(map[string]any); ok {
			out = append(out, value)
		}
	}
	return out
}

// PendingKickoffs groups non-terminal matches by kickoff and returns the
// distinct kickoffs in ascending order.
func PendingKickoffs(matches []Match) []int64 {
	seen := make(map[int64]struct{}, len(matches))
	out := make([]int64, 0, len(matches))
	for _, item := range matches {
		if item.IsTerminal() {
			continue
		}
		if _, ok := seen[item.Kickoff]; ok {
			continue
		}
		seen[item.Kickoff] = struct{}{}
		out = append(out, item.Kickoff)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Int64 converts a decoded JSON scalar to int64, returning 0 when it is not
// numeric.
func Int64(value any) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case uint64:
		return int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			return int64(f)
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

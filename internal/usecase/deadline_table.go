package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
)

// FeedKey identifies one scheduled feed.
type FeedKey struct {
	CompetitionID int64
	Kind          feed.Kind
}

func (k FeedKey) String() string {
	return fmt.Sprintf("%d/%s", k.CompetitionID, k.Kind)
}

func (k FeedKey) less(other FeedKey) bool {
	if k.CompetitionID != other.CompetitionID {
		return k.CompetitionID < other.CompetitionID
	}
	return k.Kind < other.Kind
}

type deadline struct {
	key FeedKey
	at  time.Time
}

// deadlineTable holds at most one armed deadline per feed. It is owned by the
// scheduler loop and is not safe for concurrent use.
type deadlineTable struct {
	entries map[FeedKey]deadline
}

func newDeadlineTable() *deadlineTable {
	return &deadlineTable{entries: make(map[FeedKey]deadline)}
}

// Arm replaces any deadline of key and reports whether one was cancelled.
func (t *deadlineTable) Arm(key FeedKey, at time.Time) bool {
	_, replaced := t.entries[key]
	t.entries[key] = deadline{key: key, at: at}
	return replaced
}

func (t *deadlineTable) Cancel(key FeedKey) bool {
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	return true
}

func (t *deadlineTable) CancelAll() int {
	n := len(t.entries)
	t.entries = make(map[FeedKey]deadline)
	return n
}

func (t *deadlineTable) Len() int {
	return len(t.entries)
}

func (t *deadlineTable) At(key FeedKey) (time.Time, bool) {
	entry, ok := t.entries[key]
	return entry.at, ok
}

// Next returns the earliest deadline.
func (t *deadlineTable) Next() (deadline, bool) {
	var (
		best  deadline
		found bool
	)
	for _, entry := range t.entries {
		if !found || entry.at.Before(best.at) || (entry.at.Equal(best.at) && entry.key.less(best.key)) {
			best = entry
			found = true
		}
	}
	return best, found
}

// PopDue removes and returns every deadline at or before now, earliest first.
func (t *deadlineTable) PopDue(now time.Time) []deadline {
	due := make([]deadline, 0)
	for key, entry := range t.entries {
		if entry.at.After(now) {
			continue
		}
		due = append(due, entry)
		delete(t.entries, key)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].at.Equal(due[j].at) {
			return due[i].at.Before(due[j].at)
		}
		return due[i].key.less(due[j].key)
	})
	return due
}

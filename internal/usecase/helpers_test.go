package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	c       chan time.Time
	stopped bool
	fired   bool
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), c: make(chan time.Time, 1)}
	if d <= 0 {
		t.fired = true
		t.c <- c.now
		return t
	}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	pending := c.timers[:0]
	for _, t := range c.timers {
		if t.stopped || t.fired {
			continue
		}
		if !t.at.After(c.now) {
			t.fired = true
			t.c <- c.now
			continue
		}
		pending = append(pending, t)
	}
	c.timers = pending
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.c
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.fired && !t.stopped
	t.stopped = true
	return active
}

type testMatch struct {
	id      int64
	kickoff int64
	status  int
}

type testRound struct {
	start int64
	end   int64
}

// standingsDoc builds a matches document the way the provider encodes it:
// numbers as float64 and one matches record per kickoff.
func standingsDoc(currentRound, selectableRounds int, refreshTime int64, rounds []testRound, matches ...testMatch) feed.Document {
	doc := feed.Document{
		RefreshTime:      refreshTime,
		CurrentRound:     currentRound,
		SelectableRounds: selectableRounds,
	}
	for _, round := range rounds {
		record := feed.Record{}
		if round.start != 0 {
			record["schedule_start"] = float64(round.start)
		}
		if round.end != 0 {
			record["schedule_end"] = float64(round.end)
		}
		doc.RoundsDetailed = append(doc.RoundsDetailed, record)
	}

	byKickoff := make(map[int64][]any)
	for _, m := range matches {
		byKickoff[m.kickoff] = append(byKickoff[m.kickoff], map[string]any{
			"match_id": float64(m.id),
			"status":   float64(m.status),
		})
	}
	kickoffs := make([]int64, 0, len(byKickoff))
	for k := range byKickoff {
		kickoffs = append(kickoffs, k)
	}
	sort.Slice(kickoffs, func(i, j int) bool { return kickoffs[i] < kickoffs[j] })
	for _, k := range kickoffs {
		doc.Data = append(doc.Data, feed.Record{
			"type":    feed.RecordMatches,
			"time":    float64(k),
			"matches": byKickoff[k],
		})
	}
	return doc
}

func unix(sec int64) time.Time {
	return time.Unix(sec, 0)
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/competition"
	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

type FeedState string

const (
	FeedStateIdle      FeedState = "idle"
	FeedStateScheduled FeedState = "scheduled"
	FeedStatePolling   FeedState = "polling"
	FeedStateStopped   FeedState = "stopped"
)

// FeedTarget is everything a poll of one feed needs.
type FeedTarget struct {
	Competition competition.Competition
	Kind        feed.Kind
	Language    string
	Details     bool
}

func (t FeedTarget) Key() FeedKey {
	return FeedKey{CompetitionID: t.Competition.ID, Kind: t.Kind}
}

// FeedSchedule is the observable state of one feed.
type FeedSchedule struct {
	CompetitionID   int64          `json:"competition_id"`
	CompetitionName string         `json:"competition_name"`
	Kind            feed.Kind      `json:"kind"`
	State           FeedState      `json:"state"`
	Decision        WindowDecision `json:"decision,omitempty"`
	DelayMs         int64          `json:"delay_ms"`
	NextPollAt      *time.Time     `json:"next_poll_at,omitempty"`
	Polls           int            `json:"polls"`
	Failures        int            `json:"failures"`
	LastError       string         `json:"last_error,omitempty"`
	Generation      uint64         `json:"generation"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (s FeedSchedule) Key() FeedKey {
	return FeedKey{CompetitionID: s.CompetitionID, Kind: s.Kind}
}

// FeedPoller runs one poll sequence and returns the plan for the next one.
type FeedPoller interface {
	Poll(ctx context.Context, target FeedTarget) (PollPlan, error)
}

type SchedulerConfig struct {
	// RetryDelay is armed after a failed poll.
	RetryDelay time.Duration
	// AlignFeeds makes table and scorers follow the last standings delay of
	// the same competition.
	AlignFeeds bool
	// OnTransition is called from the scheduler loop on every state change.
	// It must not call back into the scheduler.
	OnTransition func(FeedSchedule)
}

type feedEntry struct {
	target FeedTarget
	view   FeedSchedule
}

type pollResult struct {
	key        FeedKey
	generation uint64
	plan       PollPlan
	err        error
}

// RefreshScheduler owns every feed schedule. All state below the channels is
// touched only by the Run loop.
type RefreshScheduler struct {
	poller FeedPoller
	clock  Clock
	cfg    SchedulerConfig
	logger *logging.Logger

	commands chan func()
	results  chan pollResult
	done     chan struct{}
	running  atomic.Bool

	feeds          map[FeedKey]*feedEntry
	deadlines      *deadlineTable
	standingsDelay map[int64]time.Duration
	generation     uint64
	rootCtx        context.Context
	epochCtx       context.Context
	epochCancel    context.CancelFunc
	inflight       conc.WaitGroup
}

func NewRefreshScheduler(poller FeedPoller, clock Clock, cfg SchedulerConfig, logger *logging.Logger) *RefreshScheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = RetryDelay
	}

	return &RefreshScheduler{
		poller:         poller,
		clock:          clock,
		cfg:            cfg,
		logger:         logger.Named("scheduler"),
		commands:       make(chan func()),
		results:        make(chan pollResult),
		done:           make(chan struct{}),
		feeds:          make(map[FeedKey]*feedEntry),
		deadlines:      newDeadlineTable(),
		standingsDelay: make(map[int64]time.Duration),
	}
}

// Run drives the scheduler until ctx is cancelled. Every feed is stopped and
// in-flight polls are awaited before it returns.
func (s *RefreshScheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: scheduler already running", ErrInvalidInput)
	}
	defer close(s.done)

	s.rootCtx = ctx
	s.epochCtx, s.epochCancel = context.WithCancel(ctx)

	var timer Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		var fire <-chan time.Time
		if next, ok := s.deadlines.Next(); ok {
			timer = s.clock.NewTimer(next.at.Sub(s.clock.Now()))
			fire = timer.C()
		}

		select {
		case <-ctx.Done():
			s.teardown()
			return nil
		case cmd := <-s.commands:
			cmd()
		case res := <-s.results:
			s.handleResult(res)
		case <-fire:
			s.fireDue()
		}
	}
}

// Done is closed once Run has returned.
func (s *RefreshScheduler) Done() <-chan struct{} {
	return s.done
}

// Reset cancels every deadline and forgets every feed. Polls still in flight
// are discarded when they complete.
func (s *RefreshScheduler) Reset(ctx context.Context) error {
	return s.call(ctx, s.reset)
}

// Start registers feeds and polls each of them immediately. Feeds that are
// already registered are left untouched.
func (s *RefreshScheduler) Start(ctx context.Context, targets []FeedTarget) error {
	return s.call(ctx, func() {
		now := s.clock.Now()
		for _, target := range targets {
			key := target.Key()
			if _, exists := s.feeds[key]; exists {
				continue
			}
			entry := &feedEntry{
				target: target,
				view: FeedSchedule{
					CompetitionID:   target.Competition.ID,
					CompetitionName: target.Competition.Name,
					Kind:            target.Kind,
					State:           FeedStateIdle,
					Generation:      s.generation,
					UpdatedAt:       now,
				},
			}
			s.feeds[key] = entry
			s.emit(entry)
			s.arm(entry, PollPlan{NextPollAt: now}, now)
		}
	})
}

// Replace resets the scheduler and starts targets in one step.
func (s *RefreshScheduler) Replace(ctx context.Context, targets []FeedTarget) error {
	if err := s.Reset(ctx); err != nil {
		return err
	}
	return s.Start(ctx, targets)
}

// Schedules returns a copy of every feed schedule ordered by key.
func (s *RefreshScheduler) Schedules(ctx context.Context) ([]FeedSchedule, error) {
	var out []FeedSchedule
	err := s.call(ctx, func() {
		out = make([]FeedSchedule, 0, len(s.feeds))
		for _, entry := range s.feeds {
			out = append(out, entry.view)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().less(out[j].Key()) })
	return out, nil
}

func (s *RefreshScheduler) call(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	cmd := func() {
		fn()
		close(reply)
	}

	select {
	case s.commands <- cmd:
	case <-s.done:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-reply:
		return nil
	case <-s.done:
		return ErrSchedulerStopped
	}
}

func (s *RefreshScheduler) reset() {
	cancelled := s.deadlines.CancelAll()
	s.epochCancel()
	s.epochCtx, s.epochCancel = context.WithCancel(s.rootCtx)
	s.generation++
	dropped := len(s.feeds)
	s.feeds = make(map[FeedKey]*feedEntry)
	s.standingsDelay = make(map[int64]time.Duration)

	s.logger.Info("scheduler reset",
		"cancelled_deadlines", cancelled,
		"dropped_feeds", dropped,
		"generation", s.generation,
	)
}

func (s *RefreshScheduler) teardown() {
	s.epochCancel()
	s.deadlines.CancelAll()
	now := s.clock.Now()
	for _, entry := range s.feeds {
		s.stop(entry, now)
	}
	s.inflight.Wait()
	s.logger.Info("scheduler stopped", "feeds", len(s.feeds))
}

func (s *RefreshScheduler) fireDue() {
	now := s.clock.Now()
	for _, due := range s.deadlines.PopDue(now) {
		entry, ok := s.feeds[due.key]
		if !ok {
			continue
		}
		entry.view.State = FeedStatePolling
		entry.view.Polls++
		entry.view.UpdatedAt = now
		s.emit(entry)
		s.launch(entry)
	}
}

func (s *RefreshScheduler) launch(entry *feedEntry) {
	target := entry.target
	key := target.Key()
	generation := s.generation
	ctx := s.epochCtx

	s.inflight.Go(func() {
		plan, err := s.pollSafely(ctx, target)
		select {
		case s.results <- pollResult{key: key, generation: generation, plan: plan, err: err}:
		case <-ctx.Done():
		}
	})
}

func (s *RefreshScheduler) pollSafely(ctx context.Context, target FeedTarget) (plan PollPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("poll %s panicked: %v", target.Key(), r)
		}
	}()
	return s.poller.Poll(ctx, target)
}

func (s *RefreshScheduler) handleResult(res pollResult) {
	entry, ok := s.feeds[res.key]
	if !ok || res.generation != s.generation || entry.view.State != FeedStatePolling {
		s.logger.Debug("discard stale poll result",
			"feed", res.key.String(),
			"result_generation", res.generation,
			"generation", s.generation,
		)
		return
	}

	now := s.clock.Now()
	plan := res.plan
	if res.err != nil {
		entry.view.Failures++
		entry.view.LastError = res.err.Error()
		plan = PlanAfter(now, s.cfg.RetryDelay)
		s.logger.Warn("poll failed, retry armed",
			"competition", entry.target.Competition.Label(),
			"kind", string(res.key.Kind),
			"retry_in", s.cfg.RetryDelay.String(),
			"error", res.err,
		)
		s.arm(entry, plan, now)
		return
	}

	entry.view.LastError = ""
	if plan.Stop {
		s.logger.Info("season complete, feed stopped",
			"competition", entry.target.Competition.Label(),
			"kind", string(res.key.Kind),
		)
		s.stop(entry, now)
		return
	}

	switch {
	case res.key.Kind == feed.KindStandings:
		s.standingsDelay[res.key.CompetitionID] = plan.Delay
	case s.cfg.AlignFeeds:
		if delay, ok := s.standingsDelay[res.key.CompetitionID]; ok && delay > 0 {
			plan = PlanAfter(now, delay)
		}
	}
	if plan.NextPollAt.IsZero() {
		delay := plan.Delay
		if delay <= 0 {
			delay = s.cfg.RetryDelay
		}
		plan = PlanAfter(now, delay)
	}

	s.arm(entry, plan, now)
	s.logger.Info("next request planned",
		"competition", entry.target.Competition.Label(),
		"kind", string(res.key.Kind),
		"decision", string(plan.Decision),
		"next_request", plan.NextPollAt.UTC().Format(time.RFC3339),
		"clamped", plan.Clamped,
	)
}

// arm replaces the deadline of entry.
func (s *RefreshScheduler) arm(entry *feedEntry, plan PollPlan, now time.Time) {
	at := plan.NextPollAt
	key := entry.target.Key()
	if replaced := s.deadlines.Arm(key, at); replaced {
		s.logger.Debug("previous deadline cancelled", "feed", key.String())
	}

	delay := at.Sub(now)
	if delay < 0 {
		delay = 0
	}
	entry.view.State = FeedStateScheduled
	entry.view.Decision = plan.Decision
	entry.view.DelayMs = delay.Milliseconds()
	entry.view.NextPollAt = &at
	entry.view.UpdatedAt = now
	s.emit(entry)
}

func (s *RefreshScheduler) stop(entry *feedEntry, now time.Time) {
	s.deadlines.Cancel(entry.target.Key())
	entry.view.State = FeedStateStopped
	entry.view.NextPollAt = nil
	entry.view.DelayMs = 0
	entry.view.UpdatedAt = now
	s.emit(entry)
}

func (s *RefreshScheduler) emit(entry *feedEntry) {
	if s.cfg.OnTransition == nil {
		return
	}
	view := entry.view
	if view.NextPollAt != nil {
		at := *view.NextPollAt
		view.NextPollAt = &at
	}
	s.cfg.OnTransition(view)
}

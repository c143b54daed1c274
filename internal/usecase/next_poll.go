package usecase

import (
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/fixture"
)

// MaxTimerDelay is the longest deadline ever armed. Longer plans are capped
// and recomputed when they fire.
const MaxTimerDelay = 2147483647 * time.Millisecond

// RetryDelay is armed after any failed poll.
const RetryDelay = 5 * time.Minute

// PollPlan is the next deadline of one feed. Stop marks the end of the season
// for standings; no deadline is armed then.
type PollPlan struct {
	Decision   WindowDecision
	Delay      time.Duration
	NextPollAt time.Time
	Clamped    bool
	Stop       bool
}

// PlanStandings derives the next standings poll from a matches document.
func PlanStandings(doc feed.Document, now time.Time) PollPlan {
	refresh := doc.RefreshInterval(DefaultRefresh)
	current, known := fixture.CurrentRound(doc)

	window := ComputeWindow(WindowInput{
		Kickoffs:   fixture.PendingKickoffs(fixture.Matches(doc)),
		Round:      current,
		RoundKnown: known,
		Now:        now,
		Refresh:    refresh,
	})

	if window.Decision != DecisionAfterWindow {
		return planAt(window.Decision, now, window.NextPollAt, refresh)
	}

	next, nextKnown := fixture.NextRound(doc)
	at, ok := RoundAdvance(doc.CurrentRound, doc.SelectableRounds, next, nextKnown, now)
	if !ok {
		return PollPlan{Decision: DecisionAfterWindow, Stop: true}
	}
	return planAt(DecisionAfterWindow, now, at, refresh)
}

// PlanHint schedules table and scorers polls from the refresh_time hint.
func PlanHint(doc feed.Document, now time.Time) PollPlan {
	return PlanAfter(now, doc.RefreshInterval(DefaultRefresh))
}

func PlanAfter(now time.Time, delay time.Duration) PollPlan {
	return clampPlan(PollPlan{Delay: delay, NextPollAt: now.Add(delay)}, now)
}

// PlanRetry is the fixed backoff after a failed poll.
func PlanRetry(now time.Time) PollPlan {
	return PlanAfter(now, RetryDelay)
}

// planAt turns an absolute deadline into a plan. A deadline already in the
// past falls back to the refresh interval.
func planAt(decision WindowDecision, now, at time.Time, refresh time.Duration) PollPlan {
	delay := at.Sub(now)
	if delay <= 0 {
		delay = refresh
		at = now.Add(refresh)
	}
	return clampPlan(PollPlan{Decision: decision, Delay: delay, NextPollAt: at}, now)
}

func clampPlan(plan PollPlan, now time.Time) PollPlan {
	if plan.Delay > MaxTimerDelay {
		plan.Delay = MaxTimerDelay
		plan.NextPollAt = now.Add(MaxTimerDelay)
		plan.Clamped = true
	}
	return plan
}

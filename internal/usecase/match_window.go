package usecase

import (
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/fixture"
)

type WindowDecision string

const (
	DecisionWithinWindow WindowDecision = "within_window"
	DecisionBeforeWindow WindowDecision = "before_window"
	DecisionAfterWindow  WindowDecision = "after_window"
	DecisionUnscheduled  WindowDecision = "unscheduled"
)

const (
	preKickoffBuffer    = 5 * time.Minute
	lastKickoffDuration = 120 * time.Minute
	roundTailBuffer     = 5 * time.Minute
	unscheduledDelay    = 24 * time.Hour
	DefaultRefresh      = 5 * time.Minute
)

// WindowInput carries everything ComputeWindow reads. Kickoffs must be the
// distinct pending kickoffs in ascending order, see fixture.PendingKickoffs.
type WindowInput struct {
	Kickoffs   []int64
	Round      fixture.Round
	RoundKnown bool
	Now        time.Time
	Refresh    time.Duration
}

// Window is the outcome of ComputeWindow. NextPollAt is only set for
// within_window, before_window and unscheduled.
type Window struct {
	Decision   WindowDecision
	Start      time.Time
	End        time.Time
	NextPollAt time.Time
}

// ComputeWindow places now relative to the pending matches of a round.
func ComputeWindow(in WindowInput) Window {
	if !in.RoundKnown || !in.Round.Scheduled() {
		return Window{
			Decision:   DecisionUnscheduled,
			NextPollAt: in.Now.Add(unscheduledDelay),
		}
	}
	if len(in.Kickoffs) == 0 {
		return Window{Decision: DecisionAfterWindow}
	}

	refresh := in.Refresh
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	startIdx := closestKickoff(in.Kickoffs, in.Now)
	kickoff := time.Unix(in.Kickoffs[startIdx], 0)
	last := len(in.Kickoffs) - 1

	var end time.Time
	if startIdx == last {
		end = kickoff.Add(lastKickoffDuration)
	} else {
		end = time.Unix(in.Kickoffs[last], 0).Add(roundTailBuffer)
	}
	start := kickoff.Add(-preKickoffBuffer)

	switch {
	case in.Now.Before(start):
		return Window{Decision: DecisionBeforeWindow, Start: start, End: end, NextPollAt: start}
	case in.Now.After(end):
		return Window{Decision: DecisionAfterWindow, Start: start, End: end}
	default:
		return Window{Decision: DecisionWithinWindow, Start: start, End: end, NextPollAt: in.Now.Add(refresh)}
	}
}

// closestKickoff returns the index minimizing |kickoff - now|; the first
// minimal entry wins ties.
func closestKickoff(kickoffs []int64, now time.Time) int {
	best := 0
	bestDiff := absDuration(time.Unix(kickoffs[0], 0).Sub(now))
	for i := 1; i < len(kickoffs); i++ {
		diff := absDuration(time.Unix(kickoffs[i], 0).Sub(now))
		if diff < bestDiff {
			best = i
			bestDiff = diff
		}
	}
	return best
}

// RoundAdvance decides what follows an after_window decision. A false ok
// means the season has no selectable round left.
func RoundAdvance(currentRound, selectableRounds int, next fixture.Round, nextKnown bool, now time.Time) (time.Time, bool) {
	if currentRound > selectableRounds {
		return time.Time{}, false
	}
	if nextKnown && next.ScheduleStart != 0 {
		return time.Unix(next.ScheduleStart, 0).Add(-preKickoffBuffer), true
	}
	return now.Add(unscheduledDelay), true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

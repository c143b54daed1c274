package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/feed"
	"github.com/riskibarqy/soccer-livescore/internal/domain/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planNow = int64(1_760_000_000)

func TestPlanStandings_WithinWindowUsesRefreshHint(t *testing.T) {
	t.Parallel()

	doc := standingsDoc(5, 38, 60,
		[]testRound{{1, 2}, {3, 4}, {5, 6}, {7, 8}, {planNow - 3600, planNow + 86400}},
		testMatch{id: 1, kickoff: planNow - 1800, status: 40},
		testMatch{id: 2, kickoff: planNow - 1800, status: fixture.StatusFinished},
	)

	plan := PlanStandings(doc, unix(planNow))

	require.False(t, plan.Stop)
	assert.Equal(t, DecisionWithinWindow, plan.Decision)
	assert.Equal(t, time.Minute, plan.Delay)
	assert.Equal(t, unix(planNow+60), plan.NextPollAt)
}

func TestPlanStandings_MissingRoundIsUnscheduled(t *testing.T) {
	t.Parallel()

	doc := standingsDoc(4, 38, 0, []testRound{{1, 2}},
		testMatch{id: 1, kickoff: planNow + 600, status: 0},
	)

	plan := PlanStandings(doc, unix(planNow))

	assert.Equal(t, DecisionUnscheduled, plan.Decision)
	assert.Equal(t, int64(86_400_000), plan.Delay.Milliseconds())
}

func TestPlanStandings_FinishedRoundAdvancesToNextRound(t *testing.T) {
	t.Parallel()

	nextStart := planNow + 3*86400
	doc := standingsDoc(1, 38, 0,
		[]testRound{{planNow - 86400, planNow - 3600}, {nextStart, nextStart + 86400}},
		testMatch{id: 1, kickoff: planNow - 7200, status: fixture.StatusFinished},
		testMatch{id: 2, kickoff: planNow - 7200, status: fixture.StatusAwarded},
	)

	plan := PlanStandings(doc, unix(planNow))

	require.False(t, plan.Stop)
	assert.Equal(t, DecisionAfterWindow, plan.Decision)
	assert.Equal(t, unix(nextStart-300), plan.NextPollAt)
}

func TestPlanStandings_NextRoundWithoutStartWaitsOneDay(t *testing.T) {
	t.Parallel()

	doc := standingsDoc(1, 38, 0, []testRound{{planNow - 86400, planNow - 3600}, {0, 0}})

	plan := PlanStandings(doc, unix(planNow))

	assert.Equal(t, DecisionAfterWindow, plan.Decision)
	assert.Equal(t, 24*time.Hour, plan.Delay)
}

func TestPlanStandings_PastNextRoundStartFallsBackToRefresh(t *testing.T) {
	t.Parallel()

	doc := standingsDoc(1, 38, 120, []testRound{{planNow - 86400, planNow - 3600}, {planNow - 60, planNow + 3600}})

	plan := PlanStandings(doc, unix(planNow))

	assert.Equal(t, 2*time.Minute, plan.Delay)
	assert.Equal(t, unix(planNow+120), plan.NextPollAt)
}

func TestPlanStandings_SeasonCompleteStops(t *testing.T) {
	t.Parallel()

	doc := standingsDoc(39, 38, 0, []testRound{
		{1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2},
		{1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2},
		{1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2},
		{1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2}, {1, 2},
	})

	plan := PlanStandings(doc, unix(planNow))

	assert.True(t, plan.Stop)
	assert.True(t, plan.NextPollAt.IsZero())
}

func TestPlanStandings_ClampsLongDelays(t *testing.T) {
	t.Parallel()

	nextStart := planNow + 60*86400
	doc := standingsDoc(1, 38, 0, []testRound{{planNow - 86400, planNow - 3600}, {nextStart, nextStart + 86400}})

	plan := PlanStandings(doc, unix(planNow))

	require.True(t, plan.Clamped)
	assert.Equal(t, int64(2_147_483_647), plan.Delay.Milliseconds())
	assert.Equal(t, unix(planNow).Add(MaxTimerDelay), plan.NextPollAt)
}

func TestPlanAfter_ClampBoundary(t *testing.T) {
	t.Parallel()

	now := unix(planNow)
	assert.False(t, PlanAfter(now, MaxTimerDelay).Clamped)
	over := PlanAfter(now, MaxTimerDelay+time.Millisecond)
	assert.True(t, over.Clamped)
	assert.Equal(t, MaxTimerDelay, over.Delay)
}

func TestPlanHint(t *testing.T) {
	t.Parallel()

	now := unix(planNow)
	assert.Equal(t, 5*time.Minute, PlanHint(feed.Document{}, now).Delay)
	assert.Equal(t, 90*time.Second, PlanHint(feed.Document{RefreshTime: 90}, now).Delay)
	assert.Equal(t, now.Add(5*time.Minute), PlanRetry(now).NextPollAt)
}

package usecase

import (
	"testing"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/domain/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scheduledRound = fixture.Round{Index: 0, ScheduleStart: 1, ScheduleEnd: 100000}

func TestComputeWindow_BeforeWindowWaitsForBufferedKickoff(t *testing.T) {
	t.Parallel()

	got := ComputeWindow(WindowInput{
		Kickoffs:   []int64{2000},
		Round:      scheduledRound,
		RoundKnown: true,
		Now:        unix(1000),
	})

	require.Equal(t, DecisionBeforeWindow, got.Decision)
	assert.Equal(t, unix(1700), got.NextPollAt)
	assert.Equal(t, unix(2000+7200), got.End)
}

func TestComputeWindow_PreKickoffBufferCountsAsWithin(t *testing.T) {
	t.Parallel()

	// kickoff 200s away is inside the five minute buffer.
	got := ComputeWindow(WindowInput{
		Kickoffs:   []int64{1200},
		Round:      scheduledRound,
		RoundKnown: true,
		Now:        unix(1000),
	})

	require.Equal(t, DecisionWithinWindow, got.Decision)
	assert.Equal(t, unix(1000).Add(DefaultRefresh), got.NextPollAt)
}

func TestComputeWindow_WithinWindowUsesRefresh(t *testing.T) {
	t.Parallel()

	got := ComputeWindow(WindowInput{
		Kickoffs:   []int64{1150, 1200},
		Round:      scheduledRound,
		RoundKnown: true,
		Now:        unix(1200),
		Refresh:    time.Minute,
	})

	require.Equal(t, DecisionWithinWindow, got.Decision)
	assert.Equal(t, unix(900), got.Start)
	assert.Equal(t, unix(8400), got.End)
	assert.Equal(t, unix(1260), got.NextPollAt)
}

func TestComputeWindow_TieResolvesToFirstKickoff(t *testing.T) {
	t.Parallel()

	got := ComputeWindow(WindowInput{
		Kickoffs:   []int64{900, 1100},
		Round:      scheduledRound,
		RoundKnown: true,
		Now:        unix(1000),
	})

	require.Equal(t, DecisionWithinWindow, got.Decision)
	assert.Equal(t, unix(600), got.Start)
	assert.Equal(t, unix(1400), got.End, "end is the last kickoff plus five minutes")
}

func TestComputeWindow_EndDerivedWithoutMutatingKickoffs(t *testing.T) {
	t.Parallel()

	kickoffs := []int64{500, 1500, 9000}
	in := WindowInput{Kickoffs: kickoffs, Round: scheduledRound, RoundKnown: true, Now: unix(1400)}

	first := ComputeWindow(in)
	second := ComputeWindow(in)

	assert.Equal(t, []int64{500, 1500, 9000}, kickoffs)
	assert.Equal(t, first, second)
	assert.Equal(t, unix(9300), first.End)
	assert.Equal(t, unix(1200), first.Start)
}

func TestComputeWindow_AfterWindow(t *testing.T) {
	t.Parallel()

	got := ComputeWindow(WindowInput{
		Kickoffs:   []int64{1000},
		Round:      scheduledRound,
		RoundKnown: true,
		Now:        unix(8201),
	})
	assert.Equal(t, DecisionAfterWindow, got.Decision)
	assert.True(t, got.NextPollAt.IsZero())

	empty := ComputeWindow(WindowInput{Round: scheduledRound, RoundKnown: true, Now: unix(1000)})
	assert.Equal(t, DecisionAfterWindow, empty.Decision)
}

func TestComputeWindow_UnscheduledIsExactlyOneDay(t *testing.T) {
	t.Parallel()

	now := unix(1_700_000_000)
	cases := []WindowInput{
		{Kickoffs: []int64{1_700_000_100}, Round: fixture.Round{}, RoundKnown: true, Now: now},
		{Kickoffs: []int64{1_700_000_100}, RoundKnown: false, Now: now},
		{RoundKnown: false, Now: now},
	}
	for _, in := range cases {
		got := ComputeWindow(in)
		require.Equal(t, DecisionUnscheduled, got.Decision)
		assert.Equal(t, int64(86_400_000), got.NextPollAt.Sub(now).Milliseconds())
	}
}

func TestComputeWindow_StartIsClosestKickoff(t *testing.T) {
	t.Parallel()

	kickoffs := []int64{100, 400, 700, 1000, 1300}
	for now := int64(0); now <= 1500; now += 50 {
		got := ComputeWindow(WindowInput{Kickoffs: kickoffs, Round: scheduledRound, RoundKnown: true, Now: unix(now)})

		best := kickoffs[0]
		for _, k := range kickoffs[1:] {
			if absInt(k-now) < absInt(best-now) {
				best = k
			}
		}
		assert.Equal(t, unix(best).Add(-5*time.Minute), got.Start, "now=%d", now)
	}
}

func TestRoundAdvance(t *testing.T) {
	t.Parallel()

	now := unix(1_000_000)

	at, ok := RoundAdvance(3, 38, fixture.Round{ScheduleStart: 2_000_000}, true, now)
	require.True(t, ok)
	assert.Equal(t, unix(2_000_000-300), at)

	at, ok = RoundAdvance(38, 38, fixture.Round{}, false, now)
	require.True(t, ok)
	assert.Equal(t, now.Add(24*time.Hour), at)

	_, ok = RoundAdvance(39, 38, fixture.Round{ScheduleStart: 2_000_000}, true, now)
	assert.False(t, ok)
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

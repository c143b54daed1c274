package housekeeping

import (
	"context"
	"testing"

	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	s, err := NewScheduler(logging.NewNop(),
		Job{Name: "snapshot-retention", Run: noop},
		Job{Name: "hourly", Spec: "@hourly", Run: noop},
		Job{Name: "skipped"},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	s.Start()
	s.Stop()
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(logging.NewNop(), Job{Name: "broken", Spec: "every tuesday", Run: func(context.Context) error { return nil }})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestScheduler_WrapRunsJobWithContext(t *testing.T) {
	t.Parallel()

	var got error
	s, err := NewScheduler(logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Stop)

	s.wrap(Job{Name: "probe", Run: func(ctx context.Context) error {
		got = ctx.Err()
		return nil
	}})()
	assert.NoError(t, got)
}

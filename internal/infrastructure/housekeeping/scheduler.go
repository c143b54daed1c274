package housekeeping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

const DefaultSpec = "17 3 * * *"

// Job is one periodic maintenance task.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs maintenance jobs on cron specs in UTC. A tick that is still
// running when the next one fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger *logging.Logger, jobs ...Job) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("housekeeping")

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	for _, job := range jobs {
		if job.Run == nil {
			continue
		}
		spec := strings.TrimSpace(job.Spec)
		if spec == "" {
			spec = DefaultSpec
		}
		if _, err := s.cron.AddFunc(spec, s.wrap(job)); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s with spec %q: %w", job.Name, spec, err)
		}
		logger.Info("housekeeping job scheduled", "job", job.Name, "spec", spec)
	}
	return s, nil
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx := s.ctx
		if job.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, job.Timeout)
			defer cancel()
		}

		started := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.ErrorContext(ctx, "housekeeping job failed", "job", job.Name, "error", err)
			return
		}
		s.logger.DebugContext(ctx, "housekeeping job finished", "job", job.Name, "duration", time.Since(started).String())
	}
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

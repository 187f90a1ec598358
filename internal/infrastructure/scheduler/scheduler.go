package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// EverySecond fires on every wall-clock second.
const EverySecond = "* * * * * *"

type Logger interface {
	Errorf(template string, args ...interface{})
}

type Scheduler struct {
	cron   *cron.Cron
	logger Logger
	ctx    context.Context
}

// New creates a seconds-resolution scheduler evaluating specs in loc.
func New(loc *time.Location, logger Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		logger: logger,
		ctx:    context.Background(),
	}
}

// AddJob registers job under spec. A job that is still running when its
// next activation comes is skipped for that activation.
func (s *Scheduler) AddJob(name, spec string, job func(context.Context) error) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		if err := job(s.ctx); err != nil {
			s.logger.Errorf("Scheduled job %s failed: %v", name, err)
		}
	}))

	_, err := s.cron.AddJob(spec, wrapped)
	return err
}

// Start runs the registered jobs in the background. Jobs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

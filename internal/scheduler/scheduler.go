// Package scheduler runs periodic maintenance jobs on a robfig/cron scheduler.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AutoCloseSpec runs the auto-close sweep every 15 minutes.
const AutoCloseSpec = "@every 15m"

// AutoCloser is satisfied by *service.TicketService.
type AutoCloser interface {
	AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		log: log,
	}
}

// AddAutoClose registers the resolved→closed sweep. olderThan <= 0 registers nothing.
func (s *Scheduler) AddAutoClose(spec string, closer AutoCloser, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, autoCloseJob(closer, olderThan, s.log)); err != nil {
		return err
	}
	s.log.Info("auto-close scheduled", zap.String("spec", spec), zap.Duration("older_than", olderThan))
	return nil
}

func autoCloseJob(closer AutoCloser, olderThan time.Duration, log *zap.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		n, err := closer.AutoCloseResolved(ctx, olderThan)
		if err != nil {
			log.Warn("auto-close sweep finished with errors", zap.Int("closed", n), zap.Error(err))
			return
		}
		log.Debug("auto-close sweep finished", zap.Int("closed", n))
	}
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

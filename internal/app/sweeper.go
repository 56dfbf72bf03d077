package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper periodically times out attempts left open past their deadline.
type Sweeper struct {
	service *AttemptService
	log     *zap.Logger
	cron    *cron.Cron
}

// NewSweeper schedules ExpireStale on a cron spec such as "@every 1m".
func NewSweeper(service *AttemptService, schedule string, log *zap.Logger) (*Sweeper, error) {
	cl := cronLogger{log: log.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))
	s := &Sweeper{service: service, log: log, cron: c}
	if _, err := c.AddFunc(schedule, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.service.ExpireStale(ctx)
	if err != nil {
		s.log.Error("attempt sweep failed", zap.Error(err), zap.Int("expired", n))
		return
	}
	if n > 0 {
		s.log.Info("timed out stale attempts", zap.Int("expired", n))
	}
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// cronLogger sends cron's scheduler chatter to zap at debug level and its errors at error level.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"lms-quiz-service/internal/domain"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type expiringStore struct {
	AttemptStore
	stale  []domain.Attempt
	closed []domain.Attempt
}

func (s *expiringStore) ListExpired(_ context.Context, before time.Time) ([]domain.Attempt, error) {
	out := []domain.Attempt{}
	for _, a := range s.stale {
		if a.ExpiresAt.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *expiringStore) Close(_ context.Context, a domain.Attempt) error {
	s.closed = append(s.closed, a)
	return nil
}

func TestSweeperRunOnceLogsExpiredAttempts(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &expiringStore{stale: []domain.Attempt{
		{ID: "a1", Status: domain.AttemptInProgress, ExpiresAt: now.Add(-time.Hour)},
		{ID: "a2", Status: domain.AttemptInProgress, ExpiresAt: now.Add(time.Hour)},
	}}
	service := NewAttemptService(nil, nil, store, WithClock(func() time.Time { return now }))

	core, logs := observer.New(zap.InfoLevel)
	sweeper, err := NewSweeper(service, "@every 1h", zap.New(core))
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	sweeper.runOnce()

	if len(store.closed) != 1 || store.closed[0].ID != "a1" || store.closed[0].Status != domain.AttemptTimedOut {
		t.Fatalf("expected a1 timed out, got %+v", store.closed)
	}
	if logs.FilterMessage("timed out stale attempts").Len() != 1 {
		t.Fatalf("expected one sweep log entry, got %v", logs.All())
	}

	sweeper.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	service := NewAttemptService(nil, nil, &expiringStore{})
	if _, err := NewSweeper(service, "every now and then", zap.NewNop()); err == nil {
		t.Fatalf("expected invalid cron schedule to fail")
	}
}

func TestCronLoggerRoutesToZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := cronLogger{log: zap.New(core).Sugar()}

	l.Info("skip", "job", "sweep")
	l.Error(errors.New("boom"), "panic", "job", "sweep")

	if got := logs.FilterMessage("skip").FilterField(zap.String("job", "sweep")).Len(); got != 1 {
		t.Fatalf("expected skip notice in zap, got %v", logs.All())
	}
	errEntries := logs.FilterMessage("panic").All()
	if len(errEntries) != 1 || errEntries[0].Level != zap.ErrorLevel {
		t.Fatalf("expected one error entry, got %v", errEntries)
	}
	if errEntries[0].ContextMap()["error"] != "boom" {
		t.Fatalf("expected error field, got %v", errEntries[0].ContextMap())
	}
}

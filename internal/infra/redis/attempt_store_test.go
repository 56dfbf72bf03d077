package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAttemptStoreCreateIfAbsentSetsOpenKey(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()

	first, created, err := store.CreateIfAbsent(ctx, openAttempt("a1", "s1", time.Unix(100, 0)))
	if err != nil || !created {
		t.Fatalf("expected created, got created=%v err=%v", created, err)
	}
	if got, _ := mr.Get("attempt:open:quiz-1:s1"); got != "a1" {
		t.Fatalf("expected open key to hold a1, got %q", got)
	}

	second, created, err := store.CreateIfAbsent(ctx, openAttempt("a2", "s1", time.Unix(101, 0)))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected existing attempt a1, got %s created=%v", second.ID, created)
	}
	if mr.Exists("attempt:a2") {
		t.Fatalf("expected a2 never stored")
	}
}

func TestAttemptStoreConcurrentCreateKeepsOneOpen(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, _, err := store.CreateIfAbsent(ctx, openAttempt(string(rune('a'+i)), "s1", time.Unix(int64(100+i), 0)))
			if err == nil {
				ids <- a.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("expected every caller to see the same attempt, got %v", seen)
	}
	open, err := store.Find(ctx, app.AttemptFilter{StudentID: "s1", Status: domain.AttemptInProgress})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected exactly one open attempt, got %d", len(open))
	}
}

func TestAttemptStoreCloseIsWriteOnce(t *testing.T) {
	mr, store := newStore(t)
	ctx := context.Background()
	attempt, _, _ := store.CreateIfAbsent(ctx, openAttempt("a1", "s1", time.Unix(100, 0)))

	attempt.Status = domain.AttemptCompleted
	attempt.Score = 5
	if err := store.Close(ctx, attempt); err != nil {
		t.Fatalf("close: %v", err)
	}
	if mr.Exists("attempt:open:quiz-1:s1") {
		t.Fatalf("expected open key cleared after close")
	}

	attempt.Score = 0
	if err := store.Close(ctx, attempt); !errors.Is(err, domain.ErrAttemptClosed) {
		t.Fatalf("expected ErrAttemptClosed, got %v", err)
	}
	stored, err := store.FindByID(ctx, "a1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Score != 5 || stored.Status != domain.AttemptCompleted {
		t.Fatalf("expected first close to win, got %+v", stored)
	}

	next, created, err := store.CreateIfAbsent(ctx, openAttempt("a2", "s1", time.Unix(200, 0)))
	if err != nil || !created || next.ID != "a2" {
		t.Fatalf("expected fresh attempt after close, got %s created=%v err=%v", next.ID, created, err)
	}
}

func TestAttemptStoreCloseUnknown(t *testing.T) {
	_, store := newStore(t)
	err := store.Close(context.Background(), openAttempt("missing", "s1", time.Unix(100, 0)))
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
	if _, err := store.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrAttemptNotFound) {
		t.Fatalf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestAttemptStoreFindNewestFirst(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()

	old := openAttempt("a1", "s1", time.Unix(100, 0))
	old.QuizID = "quiz-old"
	mid := openAttempt("a2", "s1", time.Unix(200, 0))
	mid.QuizID = "quiz-mid"
	other := openAttempt("a3", "s2", time.Unix(300, 0))
	other.CourseID = "course-2"
	for _, a := range []domain.Attempt{old, mid, other} {
		if _, _, err := store.CreateIfAbsent(ctx, a); err != nil {
			t.Fatalf("create %s: %v", a.ID, err)
		}
	}

	mine, err := store.Find(ctx, app.AttemptFilter{StudentID: "s1"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "a2" || mine[1].ID != "a1" {
		t.Fatalf("unexpected student listing: %+v", ids(mine))
	}

	course, _ := store.Find(ctx, app.AttemptFilter{CourseID: "course-1"})
	if len(course) != 2 {
		t.Fatalf("expected 2 attempts in course-1, got %v", ids(course))
	}

	all, _ := store.Find(ctx, app.AttemptFilter{})
	if len(all) != 3 || all[0].ID != "a3" {
		t.Fatalf("unexpected full listing: %v", ids(all))
	}
}

func TestAttemptStoreListExpired(t *testing.T) {
	_, store := newStore(t)
	ctx := context.Background()

	early := openAttempt("a1", "s1", time.Unix(100, 0))
	late := openAttempt("a2", "s2", time.Unix(100, 0))
	late.ExpiresAt = time.Unix(10_000, 0)
	closed := openAttempt("a3", "s3", time.Unix(100, 0))
	for _, a := range []domain.Attempt{early, late, closed} {
		_, _, _ = store.CreateIfAbsent(ctx, a)
	}
	closed.Status = domain.AttemptCompleted
	if err := store.Close(ctx, closed); err != nil {
		t.Fatalf("close: %v", err)
	}

	expired, err := store.ListExpired(ctx, time.Unix(5_000, 0))
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != "a1" {
		t.Fatalf("expected only a1 expired, got %v", ids(expired))
	}
}

func newStore(t *testing.T) (*miniredis.Miniredis, *AttemptStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewAttemptStore(client)
}

func openAttempt(id, studentID string, created time.Time) domain.Attempt {
	return domain.Attempt{
		ID:        id,
		QuizID:    "quiz-1",
		CourseID:  "course-1",
		StudentID: studentID,
		StartTime: created,
		ExpiresAt: created.Add(15 * time.Minute),
		Status:    domain.AttemptInProgress,
		Answers:   []domain.Answer{},
		CreatedAt: created,
	}
}

func ids(attempts []domain.Attempt) []string {
	out := make([]string, len(attempts))
	for i, a := range attempts {
		out[i] = a.ID
	}
	return out
}

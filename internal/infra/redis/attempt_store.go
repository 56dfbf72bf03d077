package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// txRetries bounds optimistic transactions that lose a WATCH race.
const txRetries = 10

// AttemptStore is a Redis-backed attempt ledger shared by every service instance.
// Layout:
//
//	attempt:{id}                     JSON document
//	attempt:open:{quizID}:{student}  id of the in-progress attempt
//	attempts:student:{studentID}     zset of ids scored by creation time
//	attempts:course:{courseID}       zset of ids scored by creation time
//	attempts:all                     zset of ids scored by creation time
//	attempts:deadlines               zset of open ids scored by expiry
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) CreateIfAbsent(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	data, err := json.Marshal(attempt)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("marshal attempt: %w", err)
	}
	openKey := s.openKey(attempt.QuizID, attempt.StudentID)

	var (
		stored  domain.Attempt
		created bool
	)
	txf := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, openKey).Result()
		switch {
		case err == nil:
			existing, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			stored, created = existing, false
			return nil
		case !errors.Is(err, redis.Nil):
			return err
		}

		created = true
		stored = attempt
		score := float64(attempt.CreatedAt.UnixNano())
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.attemptKey(attempt.ID), data, 0)
			pipe.Set(ctx, openKey, attempt.ID, 0)
			pipe.ZAdd(ctx, s.studentKey(attempt.StudentID), redis.Z{Score: score, Member: attempt.ID})
			pipe.ZAdd(ctx, s.courseKey(attempt.CourseID), redis.Z{Score: score, Member: attempt.ID})
			pipe.ZAdd(ctx, allKey, redis.Z{Score: score, Member: attempt.ID})
			pipe.ZAdd(ctx, deadlineKey, redis.Z{Score: float64(attempt.ExpiresAt.UnixMilli()), Member: attempt.ID})
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, openKey); err != nil {
		return domain.Attempt{}, false, fmt.Errorf("create attempt: %w", err)
	}
	return stored, created, nil
}

func (s *AttemptStore) FindByID(ctx context.Context, id string) (domain.Attempt, error) {
	return s.load(ctx, s.client, id)
}

func (s *AttemptStore) Find(ctx context.Context, filter app.AttemptFilter) ([]domain.Attempt, error) {
	index := allKey
	switch {
	case filter.StudentID != "":
		index = s.studentKey(filter.StudentID)
	case filter.CourseID != "":
		index = s.courseKey(filter.CourseID)
	}

	ids, err := s.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	attempts, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if matches(a, filter) {
			out = append(out, a)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *AttemptStore) Close(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	key := s.attemptKey(attempt.ID)

	txf := func(tx *redis.Tx) error {
		stored, err := s.load(ctx, tx, attempt.ID)
		if err != nil {
			return err
		}
		if stored.Status != domain.AttemptInProgress {
			return domain.ErrAttemptClosed
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Del(ctx, s.openKey(stored.QuizID, stored.StudentID))
			pipe.ZRem(ctx, deadlineKey, attempt.ID)
			return nil
		})
		return err
	}

	if err := s.watch(ctx, txf, key); err != nil {
		if errors.Is(err, domain.ErrAttemptClosed) || errors.Is(err, domain.ErrAttemptNotFound) {
			return err
		}
		return fmt.Errorf("close attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) ListExpired(ctx context.Context, before time.Time) ([]domain.Attempt, error) {
	ids, err := s.client.ZRangeByScore(ctx, deadlineKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(before.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list deadlines: %w", err)
	}
	attempts, err := s.loadMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Attempt, 0, len(attempts))
	for _, a := range attempts {
		if a.Status == domain.AttemptInProgress && a.ExpiresAt.Before(before) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *AttemptStore) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < txRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

func (s *AttemptStore) load(ctx context.Context, c getter, id string) (domain.Attempt, error) {
	raw, err := c.Get(ctx, s.attemptKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) loadMany(ctx context.Context, ids []string) ([]domain.Attempt, error) {
	if len(ids) == 0 {
		return []domain.Attempt{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.attemptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var attempt domain.Attempt
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, attempt)
	}
	return out, nil
}

// getter is satisfied by both the client and a WATCH transaction.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

const (
	allKey      = "attempts:all"
	deadlineKey = "attempts:deadlines"
)

func (s *AttemptStore) attemptKey(id string) string {
	return "attempt:" + id
}

func (s *AttemptStore) openKey(quizID, studentID string) string {
	return "attempt:open:" + quizID + ":" + studentID
}

func (s *AttemptStore) studentKey(studentID string) string {
	return "attempts:student:" + studentID
}

func (s *AttemptStore) courseKey(courseID string) string {
	return "attempts:course:" + courseID
}

func matches(a domain.Attempt, f app.AttemptFilter) bool {
	if f.StudentID != "" && a.StudentID != f.StudentID {
		return false
	}
	if f.CourseID != "" && a.CourseID != f.CourseID {
		return false
	}
	if f.QuizID != "" && a.QuizID != f.QuizID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

func sortNewestFirst(attempts []domain.Attempt) {
	sort.Slice(attempts, func(i, j int) bool {
		if !attempts[i].CreatedAt.Equal(attempts[j].CreatedAt) {
			return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
		}
		return attempts[i].ID > attempts[j].ID
	})
}

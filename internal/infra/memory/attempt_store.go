package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore.
// A single mutex makes create-if-absent and close-if-open atomic.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
	open     map[openKey]string // (quiz, student) -> in-progress attempt id
}

type openKey struct {
	quizID    string
	studentID string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]domain.Attempt),
		open:     make(map[openKey]string),
	}
}

func (s *AttemptStore) CreateIfAbsent(_ context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := openKey{quizID: attempt.QuizID, studentID: attempt.StudentID}
	if id, ok := s.open[key]; ok {
		if existing, ok := s.attempts[id]; ok && existing.Status == domain.AttemptInProgress {
			return cloneAttempt(existing), false, nil
		}
		delete(s.open, key)
	}

	s.attempts[attempt.ID] = cloneAttempt(attempt)
	s.open[key] = attempt.ID
	return cloneAttempt(attempt), true, nil
}

func (s *AttemptStore) FindByID(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) Find(_ context.Context, filter app.AttemptFilter) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if matches(attempt, filter) {
			out = append(out, cloneAttempt(attempt))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *AttemptStore) Close(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.attempts[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if stored.Status != domain.AttemptInProgress {
		return domain.ErrAttemptClosed
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	delete(s.open, openKey{quizID: stored.QuizID, studentID: stored.StudentID})
	return nil
}

func (s *AttemptStore) ListExpired(_ context.Context, before time.Time) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, id := range s.open {
		attempt := s.attempts[id]
		if attempt.Status == domain.AttemptInProgress && attempt.ExpiresAt.Before(before) {
			out = append(out, cloneAttempt(attempt))
		}
	}
	return out, nil
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

func cloneAttempt(a domain.Attempt) domain.Attempt {
	a.Answers = append([]domain.Answer{}, a.Answers...)
	if a.EndTime != nil {
		end := *a.EndTime
		a.EndTime = &end
	}
	return a
}

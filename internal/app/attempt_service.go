package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lms-quiz-service/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// startTimeout bounds the shared create-if-absent call for a Start flight.
const startTimeout = 10 * time.Second

// AttemptService drives quiz attempts from start to grading.
type AttemptService struct {
	quizzes     QuizStore
	courses     CourseStore
	attempts    AttemptStore
	enrollments EnrollmentStore

	requireEnrollment bool
	timeoutGrace      time.Duration
	now               func() time.Time
	newID             func() string
	observer          AttemptObserver
	sf                singleflight.Group
}

// AttemptOption customizes an AttemptService.
type AttemptOption func(*AttemptService)

// WithEnrollmentCheck makes StartAttempt require a server-side enrollment record.
func WithEnrollmentCheck(store EnrollmentStore) AttemptOption {
	return func(s *AttemptService) {
		s.enrollments = store
		s.requireEnrollment = store != nil
	}
}

// WithClock is mainly for deterministic timestamps in tests.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.now = now }
}

// WithIDGenerator overrides attempt id generation.
func WithIDGenerator(newID func() string) AttemptOption {
	return func(s *AttemptService) { s.newID = newID }
}

// WithObserver attaches a lifecycle observer.
func WithObserver(o AttemptObserver) AttemptOption {
	return func(s *AttemptService) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithTimeoutGrace delays timing out an attempt past its deadline.
func WithTimeoutGrace(d time.Duration) AttemptOption {
	return func(s *AttemptService) { s.timeoutGrace = d }
}

func NewAttemptService(quizzes QuizStore, courses CourseStore, attempts AttemptStore, opts ...AttemptOption) *AttemptService {
	s := &AttemptService{
		quizzes:  quizzes,
		courses:  courses,
		attempts: attempts,
		now:      time.Now,
		newID:    uuid.NewString,
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartResult is what a student receives when starting or resuming an attempt.
type StartResult struct {
	Attempt domain.Attempt
	Quiz    QuizView
	Created bool
}

// StartAttempt opens an attempt, or returns the one the student already has open for this quiz.
func (s *AttemptService) StartAttempt(ctx context.Context, p domain.Principal, quizID, courseID string) (StartResult, error) {
	quiz, err := s.quizzes.FindPublishedByID(ctx, quizID)
	if err != nil {
		return StartResult{}, err
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return StartResult{}, err
	}
	if quiz.CourseID != courseID {
		return StartResult{}, domain.ErrCourseMismatch
	}
	if s.requireEnrollment {
		enrolled, err := s.enrollments.IsEnrolled(ctx, p.ID, courseID)
		if err != nil {
			return StartResult{}, fmt.Errorf("check enrollment: %w", err)
		}
		if !enrolled {
			return StartResult{}, domain.ErrNotEnrolled
		}
	}

	type started struct {
		attempt domain.Attempt
		created bool
	}
	// The store enforces uniqueness; singleflight only saves round-trips for
	// double-clicks landing on the same instance. Callers sharing a flight get
	// the leader's result, so only the caller whose candidate id was stored
	// reports the attempt as created.
	candidate := s.newID()
	res, err, _ := s.sf.Do(quizID+"\x00"+p.ID, func() (interface{}, error) {
		// Detached from the leader's request so its cancellation does not fail the others.
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startTimeout)
		defer cancel()

		now := s.now()
		attempt, created, err := s.attempts.CreateIfAbsent(storeCtx, domain.Attempt{
			ID:           candidate,
			QuizID:       quiz.ID,
			CourseID:     courseID,
			StudentID:    p.ID,
			StartTime:    now,
			ExpiresAt:    now.Add(quiz.TimeLimitDuration()),
			Answers:      []domain.Answer{},
			TotalMarks:   quiz.TotalMarks,
			PassingMarks: quiz.PassingMarks,
			Status:       domain.AttemptInProgress,
			CreatedAt:    now,
		})
		if err != nil {
			return nil, err
		}
		return started{attempt: attempt, created: created}, nil
	})
	if err != nil {
		return StartResult{}, err
	}
	out := res.(started)
	out.created = out.created && out.attempt.ID == candidate
	s.observer.AttemptStarted(out.created)

	return StartResult{
		Attempt: out.attempt,
		Quiz:    RedactedView(quiz),
		Created: out.created,
	}, nil
}

// SubmitAttempt grades the answers and closes the attempt. It succeeds at most once per attempt.
func (s *AttemptService) SubmitAttempt(ctx context.Context, p domain.Principal, attemptID string, submissions []domain.AnswerSubmission) (domain.Attempt, domain.GradeSummary, error) {
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, domain.GradeSummary{}, err
	}
	if attempt.StudentID != p.ID {
		return domain.Attempt{}, domain.GradeSummary{}, domain.ErrNotAttemptOwner
	}
	if attempt.Status != domain.AttemptInProgress {
		return domain.Attempt{}, domain.GradeSummary{}, domain.ErrAttemptClosed
	}

	quiz, err := s.quizzes.FindByID(ctx, attempt.QuizID)
	if err != nil {
		return domain.Attempt{}, domain.GradeSummary{}, err
	}

	answers, score, err := Grade(quiz, submissions)
	if err != nil {
		return domain.Attempt{}, domain.GradeSummary{}, err
	}
	passed := Passed(score, quiz.PassingMarks)

	end := s.now()
	attempt.Answers = answers
	attempt.Score = score
	attempt.PassingMarks = quiz.PassingMarks
	attempt.Status = domain.AttemptCompleted
	attempt.EndTime = &end
	attempt.IsPassed = passed

	if err := s.attempts.Close(ctx, attempt); err != nil {
		return domain.Attempt{}, domain.GradeSummary{}, err
	}
	s.observer.AttemptGraded(passed)

	return attempt, domain.GradeSummary{
		IsPassed:     passed,
		Score:        score,
		TotalMarks:   quiz.TotalMarks,
		PassingMarks: quiz.PassingMarks,
	}, nil
}

// ListAttemptsByStudent returns the caller's attempts, newest first.
func (s *AttemptService) ListAttemptsByStudent(ctx context.Context, p domain.Principal) ([]domain.Attempt, error) {
	return s.attempts.Find(ctx, AttemptFilter{StudentID: p.ID})
}

// ListAttemptsByCourse returns the caller's attempts in one course, newest first.
func (s *AttemptService) ListAttemptsByCourse(ctx context.Context, p domain.Principal, courseID string) ([]domain.Attempt, error) {
	return s.attempts.Find(ctx, AttemptFilter{StudentID: p.ID, CourseID: courseID})
}

// GetAttempt returns an attempt. Only Admins and Exam Managers may read other students' attempts.
func (s *AttemptService) GetAttempt(ctx context.Context, p domain.Principal, attemptID string) (domain.Attempt, error) {
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !p.IsPrivileged() && attempt.StudentID != p.ID {
		return domain.Attempt{}, domain.ErrNotAttemptOwner
	}
	return attempt, nil
}

// Remaining reports how long the owner has left on an open attempt.
// Closed attempts return the attempt with zero remaining.
func (s *AttemptService) Remaining(ctx context.Context, p domain.Principal, attemptID string) (domain.Attempt, time.Duration, error) {
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, 0, err
	}
	if attempt.StudentID != p.ID {
		return domain.Attempt{}, 0, domain.ErrNotAttemptOwner
	}
	if attempt.Status != domain.AttemptInProgress {
		return attempt, 0, nil
	}
	left := attempt.ExpiresAt.Sub(s.now())
	if left < 0 {
		left = 0
	}
	return attempt, left, nil
}

// ExpireStale moves in-progress attempts past their deadline (plus grace) to Timed Out.
// Attempts submitted concurrently keep their graded result.
func (s *AttemptService) ExpireStale(ctx context.Context) (int, error) {
	now := s.now()
	stale, err := s.attempts.ListExpired(ctx, now.Add(-s.timeoutGrace))
	if err != nil {
		return 0, fmt.Errorf("list expired attempts: %w", err)
	}

	expired := 0
	for _, attempt := range stale {
		end := now
		attempt.Status = domain.AttemptTimedOut
		attempt.EndTime = &end
		attempt.IsPassed = false
		if err := s.attempts.Close(ctx, attempt); err != nil {
			if errors.Is(err, domain.ErrAttemptClosed) || errors.Is(err, domain.ErrAttemptNotFound) {
				continue
			}
			return expired, fmt.Errorf("expire attempt %s: %w", attempt.ID, err)
		}
		expired++
	}
	if expired > 0 {
		s.observer.AttemptsExpired(expired)
	}
	return expired, nil
}

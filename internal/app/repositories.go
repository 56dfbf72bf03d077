package app

import (
	"context"
	"time"

	"lms-quiz-service/internal/domain"
)

// QuizFilter narrows quiz listings. Zero values mean "no filter".
type QuizFilter struct {
	CourseID      string
	PublishedOnly bool
}

// QuizStore persists quiz documents (in-memory, Postgres).
type QuizStore interface {
	// FindPublishedByID returns domain.ErrQuizNotFound for drafts as well as missing quizzes.
	FindPublishedByID(ctx context.Context, id string) (domain.Quiz, error)
	FindByID(ctx context.Context, id string) (domain.Quiz, error)
	// Find returns matching quizzes, newest first.
	Find(ctx context.Context, filter QuizFilter) ([]domain.Quiz, error)
	Create(ctx context.Context, quiz domain.Quiz) error
	Update(ctx context.Context, quiz domain.Quiz) error
	Delete(ctx context.Context, id string) error
}

// CourseStore is the course registry.
type CourseStore interface {
	FindByID(ctx context.Context, id string) (domain.Course, error)
	Create(ctx context.Context, course domain.Course) error
	List(ctx context.Context) ([]domain.Course, error)
}

// EnrollmentStore keeps the server-owned student/course membership.
type EnrollmentStore interface {
	// Enroll is idempotent and returns the stored record, which keeps the
	// first enrollment time.
	Enroll(ctx context.Context, enrollment domain.Enrollment) (domain.Enrollment, error)
	IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error)
}

// AttemptFilter narrows attempt listings. Zero values mean "no filter".
type AttemptFilter struct {
	StudentID string
	CourseID  string
	QuizID    string
	Status    domain.AttemptStatus
}

// AttemptStore is the attempt ledger. Implementations must make CreateIfAbsent and
// Close atomic with respect to each other.
type AttemptStore interface {
	// CreateIfAbsent stores attempt unless its student already has an in-progress attempt
	// for the same quiz; in that case the existing attempt is returned with created=false.
	CreateIfAbsent(ctx context.Context, attempt domain.Attempt) (stored domain.Attempt, created bool, err error)
	FindByID(ctx context.Context, id string) (domain.Attempt, error)
	// Find returns matching attempts, newest first.
	Find(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error)
	// Close writes a terminal attempt only if the stored copy is still in progress,
	// otherwise it returns domain.ErrAttemptClosed and leaves the stored copy untouched.
	Close(ctx context.Context, attempt domain.Attempt) error
	// ListExpired returns in-progress attempts whose deadline is before the given instant.
	ListExpired(ctx context.Context, before time.Time) ([]domain.Attempt, error)
}

// AttemptObserver receives lifecycle events, e.g. for metrics.
type AttemptObserver interface {
	AttemptStarted(created bool)
	AttemptGraded(passed bool)
	AttemptsExpired(n int)
}

type noopObserver struct{}

func (noopObserver) AttemptStarted(bool) {}
func (noopObserver) AttemptGraded(bool)  {}
func (noopObserver) AttemptsExpired(int) {}

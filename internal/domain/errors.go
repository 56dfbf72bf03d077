package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz does not exist, or is not startable.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrCourseNotFound indicates the referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAttemptNotFound indicates the quiz attempt does not exist.
	ErrAttemptNotFound = errors.New("quiz attempt not found")
	// ErrCourseMismatch is returned when the quiz belongs to another course.
	ErrCourseMismatch = errors.New("quiz does not belong to the specified course")
	// ErrInvalidQuestionIndex indicates a submitted answer points outside the quiz.
	ErrInvalidQuestionIndex = errors.New("invalid question index")
	// ErrDuplicateAnswer indicates the same question was answered twice in one submission.
	ErrDuplicateAnswer = errors.New("question answered more than once")
	// ErrValidation wraps malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotAttemptOwner is returned when a student touches someone else's attempt.
	ErrNotAttemptOwner = errors.New("quiz attempt belongs to another student")
	// ErrQuizNotPublished hides drafts from students.
	ErrQuizNotPublished = errors.New("quiz is not published yet")
	// ErrNotEnrolled is returned when enrollment is required and missing.
	ErrNotEnrolled = errors.New("student is not enrolled in this course")
	// ErrForbidden is the generic role failure.
	ErrForbidden = errors.New("forbidden")
	// ErrAttemptClosed indicates the attempt is no longer in progress.
	ErrAttemptClosed = errors.New("quiz attempt is already completed")
)

// Kind classifies errors for callers that need to react differently.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// KindOf maps an error chain onto the taxonomy. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrQuizNotFound), errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrAttemptNotFound):
		return KindNotFound
	case errors.Is(err, ErrCourseMismatch), errors.Is(err, ErrInvalidQuestionIndex),
		errors.Is(err, ErrDuplicateAnswer), errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotAttemptOwner), errors.Is(err, ErrQuizNotPublished),
		errors.Is(err, ErrNotEnrolled), errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrAttemptClosed):
		return KindConflict
	default:
		return KindInternal
	}
}

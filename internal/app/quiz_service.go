package app

import (
	"context"
	"time"

	"lms-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// QuestionInput is an authored question. ID is kept when present so edits don't reshuffle ids.
type QuestionInput struct {
	ID            string   `json:"id"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0"`
	Marks         int      `json:"marks" validate:"min=0"`
}

// QuizInput is the editable part of a quiz.
type QuizInput struct {
	Title        string            `json:"title" validate:"required"`
	Description  string            `json:"description" validate:"required"`
	CourseID     string            `json:"courseId" validate:"required"`
	TimeLimit    int               `json:"timeLimit" validate:"min=1"`
	PassingMarks int               `json:"passingMarks" validate:"min=0"`
	Status       domain.QuizStatus `json:"status" validate:"omitempty,oneof=Draft Published"`
	Questions    []QuestionInput   `json:"questions" validate:"dive"`
}

// QuizService contains the quiz authoring use cases.
type QuizService struct {
	quizzes QuizStore
	courses CourseStore
	now     func() time.Time
	newID   func() string
}

func NewQuizService(quizzes QuizStore, courses CourseStore) *QuizService {
	return &QuizService{quizzes: quizzes, courses: courses, now: time.Now, newID: uuid.NewString}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(quizzes QuizStore, courses CourseStore, now func() time.Time) *QuizService {
	s := NewQuizService(quizzes, courses)
	s.now = now
	return s
}

// List returns quizzes visible to the caller, newest first. Students only see published ones.
func (s *QuizService) List(ctx context.Context, p domain.Principal, courseID string) ([]QuizView, error) {
	quizzes, err := s.quizzes.Find(ctx, QuizFilter{
		CourseID:      courseID,
		PublishedOnly: !p.IsPrivileged(),
	})
	if err != nil {
		return nil, err
	}
	return ViewsFor(p, quizzes), nil
}

// Get returns one quiz shaped for the caller.
func (s *QuizService) Get(ctx context.Context, p domain.Principal, id string) (QuizView, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return QuizView{}, err
	}
	if !p.IsPrivileged() && quiz.Status != domain.QuizPublished {
		return QuizView{}, domain.ErrQuizNotPublished
	}
	return ViewFor(p, quiz), nil
}

// Create validates and stores a new quiz, Draft unless stated otherwise.
func (s *QuizService) Create(ctx context.Context, p domain.Principal, in QuizInput) (QuizView, error) {
	if err := validateInput(in); err != nil {
		return QuizView{}, err
	}
	if _, err := s.courses.FindByID(ctx, in.CourseID); err != nil {
		return QuizView{}, err
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:        s.newID(),
		Status:    domain.QuizDraft,
		CreatedBy: p.ID,
		CreatedAt: now,
	}
	s.apply(&quiz, in, now)

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return QuizView{}, err
	}
	return ViewFor(p, quiz), nil
}

// Update replaces the editable fields of a quiz.
func (s *QuizService) Update(ctx context.Context, p domain.Principal, id string, in QuizInput) (QuizView, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return QuizView{}, err
	}
	if err := validateInput(in); err != nil {
		return QuizView{}, err
	}
	if in.CourseID != quiz.CourseID {
		if _, err := s.courses.FindByID(ctx, in.CourseID); err != nil {
			return QuizView{}, err
		}
	}

	s.apply(&quiz, in, s.now())
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return QuizView{}, err
	}
	return ViewFor(p, quiz), nil
}

// Delete removes a quiz. Attempts referencing it are kept.
func (s *QuizService) Delete(ctx context.Context, _ domain.Principal, id string) error {
	return s.quizzes.Delete(ctx, id)
}

// ToggleStatus flips Draft and Published.
func (s *QuizService) ToggleStatus(ctx context.Context, p domain.Principal, id string) (QuizView, error) {
	quiz, err := s.quizzes.FindByID(ctx, id)
	if err != nil {
		return QuizView{}, err
	}
	if quiz.Status == domain.QuizPublished {
		quiz.Status = domain.QuizDraft
	} else {
		quiz.Status = domain.QuizPublished
	}
	quiz.UpdatedAt = s.now()
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return QuizView{}, err
	}
	return ViewFor(p, quiz), nil
}

func (s *QuizService) apply(quiz *domain.Quiz, in QuizInput, now time.Time) {
	quiz.Title = in.Title
	quiz.Description = in.Description
	quiz.CourseID = in.CourseID
	quiz.TimeLimit = in.TimeLimit
	quiz.PassingMarks = in.PassingMarks
	if in.Status != "" {
		quiz.Status = in.Status
	}

	questions := make([]domain.Question, 0, len(in.Questions))
	for _, q := range in.Questions {
		id := q.ID
		if id == "" {
			id = s.newID()
		}
		questions = append(questions, domain.Question{
			ID:            id,
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: q.CorrectAnswer,
			Marks:         q.Marks,
		})
	}
	quiz.Questions = questions
	quiz.RecomputeTotalMarks()
	quiz.UpdatedAt = now
}

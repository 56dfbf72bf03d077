package app

import (
	"time"

	"lms-quiz-service/internal/domain"
)

// QuestionView is a question as shown to a caller. CorrectAnswer is nil when redacted.
type QuestionView struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Marks         int      `json:"marks"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
}

// QuizView is the caller-facing quiz shape.
type QuizView struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	CourseID     string            `json:"courseId"`
	TimeLimit    int               `json:"timeLimit"`
	TotalMarks   int               `json:"totalMarks"`
	PassingMarks int               `json:"passingMarks"`
	Status       domain.QuizStatus `json:"status"`
	Questions    []QuestionView    `json:"questions"`
	CreatedBy    string            `json:"createdBy,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ViewFor shapes a quiz for the caller: only privileged roles see grading keys.
func ViewFor(p domain.Principal, quiz domain.Quiz) QuizView {
	return buildView(quiz, p.IsPrivileged())
}

// RedactedView strips every grading key regardless of role.
func RedactedView(quiz domain.Quiz) QuizView {
	return buildView(quiz, false)
}

func buildView(quiz domain.Quiz, withKeys bool) QuizView {
	questions := make([]QuestionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		view := QuestionView{
			ID:       q.ID,
			Question: q.Question,
			Options:  append([]string(nil), q.Options...),
			Marks:    q.Marks,
		}
		if withKeys {
			correct := q.CorrectAnswer
			view.CorrectAnswer = &correct
		}
		questions = append(questions, view)
	}
	return QuizView{
		ID:           quiz.ID,
		Title:        quiz.Title,
		Description:  quiz.Description,
		CourseID:     quiz.CourseID,
		TimeLimit:    quiz.TimeLimit,
		TotalMarks:   quiz.TotalMarks,
		PassingMarks: quiz.PassingMarks,
		Status:       quiz.Status,
		Questions:    questions,
		CreatedBy:    quiz.CreatedBy,
		CreatedAt:    quiz.CreatedAt,
		UpdatedAt:    quiz.UpdatedAt,
	}
}

// ViewsFor shapes a list of quizzes for the caller.
func ViewsFor(p domain.Principal, quizzes []domain.Quiz) []QuizView {
	out := make([]QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, ViewFor(p, q))
	}
	return out
}

package app

import (
	"errors"
	"testing"

	"lms-quiz-service/internal/domain"
)

func TestGrade(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{
		{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 2},
		{Options: []string{"a", "b"}, CorrectAnswer: 1, Marks: 3},
		{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 0},
	}}

	answers, score, err := Grade(quiz, []domain.AnswerSubmission{sub(0, intp(0)), sub(1, intp(0)), sub(2, intp(0))})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if score != 3 {
		t.Fatalf("expected score 3, got %d", score)
	}
	if !answers[0].IsCorrect || answers[0].Marks != 2 || answers[1].IsCorrect || answers[1].Marks != 0 {
		t.Fatalf("unexpected answers %+v", answers)
	}
	if answers[2].Marks != 1 {
		t.Fatalf("expected zero-mark question to default to 1, got %d", answers[2].Marks)
	}
}

func TestGradeUnansweredIsIncorrect(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1}}}

	for _, selected := range []*int{nil, intp(-5)} {
		answers, score, err := Grade(quiz, []domain.AnswerSubmission{sub(0, selected)})
		if err != nil {
			t.Fatalf("grade: %v", err)
		}
		if score != 0 || answers[0].IsCorrect || answers[0].SelectedOption != domain.Unanswered {
			t.Fatalf("expected unanswered to score nothing, got %+v", answers[0])
		}
	}
}

func TestGradeRejectsBadIndexes(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{{Options: []string{"a", "b"}, CorrectAnswer: 0, Marks: 1}}}

	if _, _, err := Grade(quiz, []domain.AnswerSubmission{sub(1, intp(0))}); !errors.Is(err, domain.ErrInvalidQuestionIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
	if _, _, err := Grade(quiz, []domain.AnswerSubmission{sub(-1, intp(0))}); !errors.Is(err, domain.ErrInvalidQuestionIndex) {
		t.Fatalf("expected invalid index for negative, got %v", err)
	}
	if _, _, err := Grade(quiz, []domain.AnswerSubmission{sub(0, intp(0)), sub(0, intp(0))}); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestPassed(t *testing.T) {
	if !Passed(6, 6) || Passed(5, 6) || !Passed(0, 0) {
		t.Fatalf("threshold must be inclusive")
	}
}

func TestViewForRedactsByRole(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{{ID: "q1", Options: []string{"a", "b"}, CorrectAnswer: 1, Marks: 1}}}

	student := ViewFor(domain.Principal{Role: domain.RoleStudent}, quiz)
	if student.Questions[0].CorrectAnswer != nil {
		t.Fatalf("student view leaked key")
	}
	manager := ViewFor(domain.Principal{Role: domain.RoleExamManager}, quiz)
	if manager.Questions[0].CorrectAnswer == nil || *manager.Questions[0].CorrectAnswer != 1 {
		t.Fatalf("manager view missing key")
	}
	if RedactedView(quiz).Questions[0].CorrectAnswer != nil {
		t.Fatalf("redacted view leaked key")
	}
}

func sub(question int, selected *int) domain.AnswerSubmission {
	return domain.AnswerSubmission{QuestionIndex: question, SelectedOption: selected}
}

func intp(v int) *int { return &v }

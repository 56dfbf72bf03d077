package app

import (
	"fmt"

	"lms-quiz-service/internal/domain"
)

// Grade scores submissions against the quiz's current question list.
// Any out-of-range or repeated question index rejects the whole submission.
func Grade(quiz domain.Quiz, submissions []domain.AnswerSubmission) ([]domain.Answer, int, error) {
	answers := make([]domain.Answer, 0, len(submissions))
	seen := make(map[int]struct{}, len(submissions))
	score := 0

	for _, submission := range submissions {
		idx := submission.QuestionIndex
		if idx < 0 || idx >= len(quiz.Questions) {
			return nil, 0, fmt.Errorf("%w: %d", domain.ErrInvalidQuestionIndex, idx)
		}
		if _, dup := seen[idx]; dup {
			return nil, 0, fmt.Errorf("%w: %d", domain.ErrDuplicateAnswer, idx)
		}
		seen[idx] = struct{}{}

		question := quiz.Questions[idx]
		selected := domain.Unanswered
		if submission.SelectedOption != nil && *submission.SelectedOption >= 0 {
			selected = *submission.SelectedOption
		}

		correct := selected != domain.Unanswered && selected == question.CorrectAnswer
		marks := 0
		if correct {
			marks = question.Marks
			if marks == 0 {
				marks = 1
			}
		}
		score += marks

		answers = append(answers, domain.Answer{
			QuestionIndex:  idx,
			SelectedOption: selected,
			IsCorrect:      correct,
			Marks:          marks,
		})
	}
	return answers, score, nil
}

// Passed applies the inclusive passing threshold.
func Passed(score, passingMarks int) bool {
	return score >= passingMarks
}

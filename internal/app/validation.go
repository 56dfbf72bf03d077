package app

import (
	"errors"
	"fmt"
	"strings"

	"lms-quiz-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(QuestionInput)
		if q.CorrectAnswer >= len(q.Options) {
			sl.ReportError(q.CorrectAnswer, "CorrectAnswer", "correctAnswer", "optionindex", "")
		}
	}, QuestionInput{})
	return v
}

// validateInput runs struct tags and folds failures into domain.ErrValidation.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(parts, "; "))
}

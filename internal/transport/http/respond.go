package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"lms-quiz-service/internal/domain"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// writeError maps a use-case error onto a status code. Internal errors are logged
// and replaced by a generic message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		writeMessage(w, http.StatusNotFound, err.Error())
	case domain.KindValidation:
		writeMessage(w, http.StatusBadRequest, err.Error())
	case domain.KindForbidden:
		writeMessage(w, http.StatusForbidden, err.Error())
	case domain.KindConflict:
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		log.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", domain.ErrValidation)
	}
	return nil
}

// decode reads a request body and checks its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Errorf("%w: %s failed on %q", domain.ErrValidation, ve[0].Field(), ve[0].Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

package http

import (
	"net/http"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type QuizHandler struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewQuizHandler(service *app.QuizService, log *zap.Logger) *QuizHandler {
	return &QuizHandler{service: service, log: log}
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.List(r.Context(), principalFrom(r.Context()), r.URL.Query().Get("courseId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Get(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in app.QuizInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	quiz, err := h.service.Create(r.Context(), principalFrom(r.Context()), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": "Quiz created successfully", "quiz": quiz})
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in app.QuizInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	quiz, err := h.service.Update(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Quiz updated successfully", "quiz": quiz})
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Quiz deleted successfully"})
}

func (h *QuizHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.ToggleStatus(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	message := "Quiz unpublished successfully"
	if quiz.Status == domain.QuizPublished {
		message = "Quiz published successfully"
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": message, "quiz": quiz})
}

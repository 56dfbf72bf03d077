package http

import (
	"net/http"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AttemptHandler struct {
	service *app.AttemptService
	log     *zap.Logger
}

func NewAttemptHandler(service *app.AttemptService, log *zap.Logger) *AttemptHandler {
	return &AttemptHandler{service: service, log: log}
}

type startRequest struct {
	QuizID   string `json:"quizId" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
}

type submitRequest struct {
	AttemptID string                    `json:"attemptId" validate:"required"`
	Answers   []domain.AnswerSubmission `json:"answers"`
}

// Start handles POST /api/quiz-attempts/start.
func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	res, err := h.service.StartAttempt(r.Context(), principalFrom(r.Context()), req.QuizID, req.CourseID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	status, message := http.StatusCreated, "Quiz attempt started successfully"
	if !res.Created {
		status, message = http.StatusOK, "Quiz attempt already in progress"
	}
	writeJSON(w, status, envelope{
		"success": true,
		"message": message,
		"attempt": res.Attempt,
		"quiz":    res.Quiz,
	})
}

// Submit handles POST /api/quiz-attempts/submit.
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	attempt, summary, err := h.service.SubmitAttempt(r.Context(), principalFrom(r.Context()), req.AttemptID, req.Answers)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":      true,
		"message":      "Quiz attempt submitted successfully",
		"attempt":      attempt,
		"isPassed":     summary.IsPassed,
		"score":        summary.Score,
		"totalMarks":   summary.TotalMarks,
		"passingMarks": summary.PassingMarks,
	})
}

func (h *AttemptHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.ListAttemptsByStudent(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *AttemptHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.service.ListAttemptsByCourse(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "courseId"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (h *AttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

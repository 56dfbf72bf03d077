package http

import (
	"net/http"

	"lms-quiz-service/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CourseHandler struct {
	service *app.CourseService
	log     *zap.Logger
}

func NewCourseHandler(service *app.CourseService, log *zap.Logger) *CourseHandler {
	return &CourseHandler{service: service, log: log}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in app.CourseInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.log, err)
		return
	}
	course, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": "Course created successfully", "course": course})
}

func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	enrollment, err := h.service.Enroll(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Enrolled successfully", "enrollment": enrollment})
}

func (h *CourseHandler) MyEnrollments(w http.ResponseWriter, r *http.Request) {
	enrollments, err := h.service.Enrollments(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollments)
}

package app

import (
	"context"
	"fmt"
	"time"

	"lms-quiz-service/internal/domain"

	"github.com/google/uuid"
)

// CourseInput creates a course.
type CourseInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CourseService exposes the course registry and student enrollment.
type CourseService struct {
	courses     CourseStore
	enrollments EnrollmentStore
	now         func() time.Time
	newID       func() string
}

func NewCourseService(courses CourseStore, enrollments EnrollmentStore) *CourseService {
	return &CourseService{courses: courses, enrollments: enrollments, now: time.Now, newID: uuid.NewString}
}

func (s *CourseService) Create(ctx context.Context, in CourseInput) (domain.Course, error) {
	if err := validateInput(in); err != nil {
		return domain.Course{}, err
	}
	course := domain.Course{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   s.now(),
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return domain.Course{}, err
	}
	return course, nil
}

func (s *CourseService) Get(ctx context.Context, id string) (domain.Course, error) {
	return s.courses.FindByID(ctx, id)
}

func (s *CourseService) List(ctx context.Context) ([]domain.Course, error) {
	return s.courses.List(ctx)
}

// Enroll records the caller as a student of the course. Enrolling twice is a no-op.
func (s *CourseService) Enroll(ctx context.Context, p domain.Principal, courseID string) (domain.Enrollment, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return domain.Enrollment{}, err
	}
	enrollment, err := s.enrollments.Enroll(ctx, domain.Enrollment{StudentID: p.ID, CourseID: courseID, EnrolledAt: s.now()})
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("enroll: %w", err)
	}
	return enrollment, nil
}

// Enrollments lists the caller's courses.
func (s *CourseService) Enrollments(ctx context.Context, p domain.Principal) ([]domain.Enrollment, error) {
	return s.enrollments.ListByStudent(ctx, p.ID)
}

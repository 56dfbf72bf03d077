package memory

import (
	"context"
	"sort"
	"sync"

	"lms-quiz-service/internal/domain"
)

// CourseStore is an in-memory course registry.
type CourseStore struct {
	mu      sync.RWMutex
	courses map[string]domain.Course
}

func NewCourseStore(seed ...domain.Course) *CourseStore {
	s := &CourseStore{courses: make(map[string]domain.Course)}
	for _, c := range seed {
		s.courses[c.ID] = c
	}
	return s
}

func (s *CourseStore) FindByID(_ context.Context, id string) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseStore) Create(_ context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
	return nil
}

func (s *CourseStore) List(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// EnrollmentStore keeps enrollments keyed by student.
type EnrollmentStore struct {
	mu        sync.RWMutex
	byStudent map[string]map[string]domain.Enrollment
}

func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{byStudent: make(map[string]map[string]domain.Enrollment)}
}

func (s *EnrollmentStore) Enroll(_ context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	courses, ok := s.byStudent[e.StudentID]
	if !ok {
		courses = make(map[string]domain.Enrollment)
		s.byStudent[e.StudentID] = courses
	}
	if existing, exists := courses[e.CourseID]; exists {
		return existing, nil
	}
	courses[e.CourseID] = e
	return e, nil
}

func (s *EnrollmentStore) IsEnrolled(_ context.Context, studentID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byStudent[studentID][courseID]
	return ok, nil
}

func (s *EnrollmentStore) ListByStudent(_ context.Context, studentID string) ([]domain.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Enrollment, 0, len(s.byStudent[studentID]))
	for _, e := range s.byStudent[studentID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.Before(out[j].EnrolledAt) })
	return out, nil
}

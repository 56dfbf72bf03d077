package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lms-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CourseStore is the Postgres course registry.
type CourseStore struct {
	pool *pgxpool.Pool
}

func NewCourseStore(pool *pgxpool.Pool) *CourseStore {
	return &CourseStore{pool: pool}
}

func (s *CourseStore) FindByID(ctx context.Context, id string) (domain.Course, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM courses WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("load course: %w", err)
	}
	var course domain.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return domain.Course{}, fmt.Errorf("unmarshal course: %w", err)
	}
	return course, nil
}

func (s *CourseStore) Create(ctx context.Context, course domain.Course) error {
	data, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("marshal course: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO courses (id, name, data, created_at) VALUES ($1, $2, $3, $4)`,
		course.ID, course.Name, data, course.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

func (s *CourseStore) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM courses ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	out := []domain.Course{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var course domain.Course
		if err := json.Unmarshal(raw, &course); err != nil {
			return nil, fmt.Errorf("unmarshal course: %w", err)
		}
		out = append(out, course)
	}
	return out, rows.Err()
}

// EnrollmentStore keeps enrollments in a plain join table.
type EnrollmentStore struct {
	pool *pgxpool.Pool
}

func NewEnrollmentStore(pool *pgxpool.Pool) *EnrollmentStore {
	return &EnrollmentStore{pool: pool}
}

// Enroll keeps the original enrolled_at on conflict; the no-op update lets RETURNING see the existing row.
func (s *EnrollmentStore) Enroll(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	var stored domain.Enrollment
	err := s.pool.QueryRow(ctx,
		`INSERT INTO enrollments (student_id, course_id, enrolled_at) VALUES ($1, $2, $3)
		 ON CONFLICT (student_id, course_id) DO UPDATE SET enrolled_at = enrollments.enrolled_at
		 RETURNING student_id, course_id, enrolled_at`,
		e.StudentID, e.CourseID, e.EnrolledAt).Scan(&stored.StudentID, &stored.CourseID, &stored.EnrolledAt)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("insert enrollment: %w", err)
	}
	return stored, nil
}

func (s *EnrollmentStore) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id=$1 AND course_id=$2)`,
		studentID, courseID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return ok, nil
}

func (s *EnrollmentStore) ListByStudent(ctx context.Context, studentID string) ([]domain.Enrollment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT student_id, course_id, enrolled_at FROM enrollments WHERE student_id=$1 ORDER BY enrolled_at`,
		studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	out := []domain.Enrollment{}
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.StudentID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

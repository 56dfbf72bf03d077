package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps quizzes as JSONB documents in Postgres.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) FindPublishedByID(ctx context.Context, id string) (domain.Quiz, error) {
	return s.findOne(ctx, `SELECT data FROM quizzes WHERE id=$1 AND status=$2`, id, string(domain.QuizPublished))
}

func (s *QuizStore) FindByID(ctx context.Context, id string) (domain.Quiz, error) {
	return s.findOne(ctx, `SELECT data FROM quizzes WHERE id=$1`, id)
}

func (s *QuizStore) Find(ctx context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	query := `SELECT data FROM quizzes WHERE 1=1`
	args := []interface{}{}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		query += fmt.Sprintf(" AND course_id=$%d", len(args))
	}
	if filter.PublishedOnly {
		args = append(args, string(domain.QuizPublished))
		query += fmt.Sprintf(" AND status=$%d", len(args))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := []domain.Quiz{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) error {
	quiz.RecomputeTotalMarks()
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, course_id, status, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		quiz.ID, quiz.CourseID, string(quiz.Status), data, quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Update(ctx context.Context, quiz domain.Quiz) error {
	quiz.RecomputeTotalMarks()
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE quizzes SET course_id=$2, status=$3, data=$4, updated_at=$5 WHERE id=$1`,
		quiz.ID, quiz.CourseID, string(quiz.Status), data, quiz.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) findOne(ctx context.Context, query string, args ...interface{}) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// createRetries bounds the insert/lookup loop when an open attempt closes between the two statements.
const createRetries = 3

// AttemptStore is the Postgres attempt ledger. The partial unique index on
// (quiz_id, student_id) WHERE status = 'In Progress' keeps one open attempt per pair.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) CreateIfAbsent(ctx context.Context, attempt domain.Attempt) (domain.Attempt, bool, error) {
	data, err := json.Marshal(attempt)
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("marshal attempt: %w", err)
	}

	for i := 0; i < createRetries; i++ {
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO quiz_attempts (id, quiz_id, course_id, student_id, status, expires_at, data, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (quiz_id, student_id) WHERE status = 'In Progress' DO NOTHING`,
			attempt.ID, attempt.QuizID, attempt.CourseID, attempt.StudentID,
			string(attempt.Status), attempt.ExpiresAt, data, attempt.CreatedAt)
		if err != nil {
			return domain.Attempt{}, false, fmt.Errorf("insert attempt: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return attempt, true, nil
		}

		existing, err := s.findOne(ctx,
			`SELECT data FROM quiz_attempts WHERE quiz_id=$1 AND student_id=$2 AND status=$3`,
			attempt.QuizID, attempt.StudentID, string(domain.AttemptInProgress))
		if errors.Is(err, domain.ErrAttemptNotFound) {
			continue
		}
		if err != nil {
			return domain.Attempt{}, false, err
		}
		return existing, false, nil
	}
	return domain.Attempt{}, false, fmt.Errorf("insert attempt: open attempt kept changing for quiz %s", attempt.QuizID)
}

func (s *AttemptStore) FindByID(ctx context.Context, id string) (domain.Attempt, error) {
	return s.findOne(ctx, `SELECT data FROM quiz_attempts WHERE id=$1`, id)
}

func (s *AttemptStore) Find(ctx context.Context, filter app.AttemptFilter) ([]domain.Attempt, error) {
	query := `SELECT data FROM quiz_attempts WHERE 1=1`
	args := []interface{}{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		query += fmt.Sprintf(" AND %s=$%d", column, len(args))
	}
	add("student_id", filter.StudentID)
	add("course_id", filter.CourseID)
	add("quiz_id", filter.QuizID)
	add("status", string(filter.Status))
	query += ` ORDER BY created_at DESC, id DESC`

	return s.query(ctx, query, args...)
}

func (s *AttemptStore) Close(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE quiz_attempts SET status=$2, data=$3 WHERE id=$1 AND status=$4`,
		attempt.ID, string(attempt.Status), data, string(domain.AttemptInProgress))
	if err != nil {
		return fmt.Errorf("close attempt: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quiz_attempts WHERE id=$1)`, attempt.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check attempt: %w", err)
	}
	if !exists {
		return domain.ErrAttemptNotFound
	}
	return domain.ErrAttemptClosed
}

func (s *AttemptStore) ListExpired(ctx context.Context, before time.Time) ([]domain.Attempt, error) {
	return s.query(ctx,
		`SELECT data FROM quiz_attempts WHERE status=$1 AND expires_at < $2 ORDER BY expires_at`,
		string(domain.AttemptInProgress), before)
}

func (s *AttemptStore) query(ctx context.Context, query string, args ...interface{}) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := []domain.Attempt{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		var attempt domain.Attempt
		if err := json.Unmarshal(raw, &attempt); err != nil {
			return nil, fmt.Errorf("unmarshal attempt: %w", err)
		}
		out = append(out, attempt)
	}
	return out, rows.Err()
}

func (s *AttemptStore) findOne(ctx context.Context, query string, args ...interface{}) (domain.Attempt, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}

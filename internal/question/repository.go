package question

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/quizzit/quizzit/internal/quiz"
	"github.com/quizzit/quizzit/internal/sqlutil"
)

// Repository is a Postgres-backed question bank. Alternatives, tags and
// hints live in JSONB columns so the row shape matches the JSON file format
// one to one.
type Repository struct {
	db *sql.DB
	// Limit caps how many questions one round gets; 0 means all of them.
	Limit int
}

// NewRepository creates a Postgres question bank.
func NewRepository(db *sql.DB, limit int) *Repository {
	return &Repository{db: db, Limit: limit}
}

// Load implements the quiz service's QuestionBank. Order is randomized by
// the database so every round gets a fresh draw.
func (r *Repository) Load(ctx context.Context) ([]quiz.Question, error) {
	query := `
		SELECT prompt, question_type, answer, alternatives, tags, hints, media_ref
		FROM questions
		ORDER BY random()`
	args := []any{}
	if r.Limit > 0 {
		query += " LIMIT $1"
		args = append(args, r.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []quiz.Question
	for rows.Next() {
		var (
			q            quiz.Question
			questionType sql.NullString
			mediaRef     sql.NullString
			alternatives pqtype.NullRawMessage
			tags         pqtype.NullRawMessage
			hints        pqtype.NullRawMessage
		)
		if err := rows.Scan(&q.Prompt, &questionType, &q.Answer, &alternatives, &tags, &hints, &mediaRef); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Type = quiz.QuestionType(sqlutil.FromSqlString(questionType, string(quiz.QuestionTypeText)))
		q.MediaRef = sqlutil.FromSqlString(mediaRef, "")
		if err := sqlutil.FromJSONB(alternatives, &q.Alternatives); err != nil {
			return nil, fmt.Errorf("failed to decode alternatives: %w", err)
		}
		if err := sqlutil.FromJSONB(tags, &q.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
		if err := sqlutil.FromJSONB(hints, &q.Hints); err != nil {
			return nil, fmt.Errorf("failed to decode hints: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	log.Debug().Int("questions", len(questions)).Msg("questions loaded from database")
	return questions, nil
}

// Insert stores one question.
func (r *Repository) Insert(ctx context.Context, tx *sql.Tx, q quiz.Question) error {
	alternatives, err := sqlutil.ToJSONB(q.Alternatives)
	if err != nil {
		return fmt.Errorf("failed to encode alternatives: %w", err)
	}
	tags, err := sqlutil.ToJSONB(q.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	hints, err := sqlutil.ToJSONB(q.Hints)
	if err != nil {
		return fmt.Errorf("failed to encode hints: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO questions (id, prompt, question_type, answer, alternatives, tags, hints, media_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(),
		q.Prompt,
		sqlutil.ToSqlString(string(q.Type)),
		q.Answer,
		alternatives,
		tags,
		hints,
		sqlutil.ToSqlString(q.MediaRef),
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

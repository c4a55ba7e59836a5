package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-ai-platform/internal/domain"
	"quiz-ai-platform/internal/domain/model"
	"quiz-ai-platform/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.ChatSessionRepository = (*chatSessionRepo)(nil)

type chatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepo(pool *pgxpool.Pool) *chatSessionRepo {
	return &chatSessionRepo{pool: pool}
}

func (r *chatSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.ChatSession) error {
	const q = `
INSERT INTO chat_sessions (id, user_id, model, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status,
  updated_at=EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.UserID, s.Model, string(s.Status), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *chatSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ChatSession, error) {
	const q = `SELECT id, user_id, model, status, created_at, updated_at FROM chat_sessions WHERE id=$1;`
	s, err := r.queryOne(ctx, tx, q, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadMessages(ctx, tx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *chatSessionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.ChatSession, error) {
	const q = `
SELECT id, user_id, model, status, created_at, updated_at
  FROM chat_sessions
 WHERE user_id=$1 AND status='active'
 ORDER BY created_at DESC
 LIMIT 1;`
	s, err := r.queryOne(ctx, tx, q, userID)
	if err != nil {
		return nil, err
	}
	if err := r.loadMessages(ctx, tx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *chatSessionRepo) SaveMessage(ctx context.Context, tx repository.Tx, msg *model.ChatMessage) error {
	const q = `
INSERT INTO chat_messages (session_id, role, content, tokens, created_at)
VALUES ($1,$2,$3,$4,$5);`
	_, err := execSQL(ctx, r.pool, tx, q, msg.SessionID, msg.Role, msg.Content, msg.Tokens, msg.Timestamp)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *chatSessionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.ChatSessionStatus) error {
	const q = `UPDATE chat_sessions SET status=$2, updated_at=NOW() WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		return domain.ErrOperationFailed
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *chatSessionRepo) loadMessages(ctx context.Context, tx repository.Tx, s *model.ChatSession) error {
	const q = `
SELECT session_id, role, content, tokens, created_at
  FROM chat_messages
 WHERE session_id=$1
 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, s.ID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	defer rows.Close()
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.SessionID, &m.Role, &m.Content, &m.Tokens, &m.Timestamp); err != nil {
			return domain.ErrReadDatabaseRow
		}
		s.Messages = append(s.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return domain.ErrReadDatabaseRow
	}
	return nil
}

func (r *chatSessionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...interface{}) (*model.ChatSession, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	s := &model.ChatSession{}
	var status string
	if err := row.Scan(&s.ID, &s.UserID, &s.Model, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	s.Status = model.ChatSessionStatus(status)
	return s, nil
}

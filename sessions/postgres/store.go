// Package postgres stores sessions in PostgreSQL through a pgx connection pool.
// The schema lives in internal/db/migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jrsteele09/go-task-server/sessions"
)

var _ sessions.Repo = (*Store)(nil)

type Store struct {
	pool    *pgxpool.Pool
	nowFunc func() time.Time
}

type Option func(*Store)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects a pool to dsn and pings it.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

func (s *Store) Create(ctx context.Context, userID, userAgent string) (*sessions.Session, error) {
	now := s.nowFunc().UTC().Truncate(time.Microsecond)
	session := &sessions.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		State:     sessions.StateValid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, user_agent, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, session.ID, session.UserID, session.UserAgent, string(session.State), now)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*sessions.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, user_agent, state, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`, id)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sessions.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return session, nil
}

func (s *Store) Invalidate(ctx context.Context, id string) error {
	// A single UPDATE keeps the transition atomic per row; already revoked rows
	// keep their original revocation time.
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET state = 'revoked',
		    updated_at = CASE WHEN state = 'valid' THEN $2 ELSE updated_at END
		WHERE id = $1
	`, id, s.nowFunc().UTC())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions
		SET state = 'revoked', updated_at = $2
		WHERE user_id = $1 AND state = 'valid'
	`, userID, s.nowFunc().UTC())
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) ListValidForUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, user_agent, state, created_at, updated_at
		FROM sessions
		WHERE user_id = $1 AND state = 'valid'
		ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*sessions.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		list = append(list, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

func scanSession(row pgx.Row) (*sessions.Session, error) {
	var (
		session sessions.Session
		state   string
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.UserAgent,
		&state,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}
	session.State = sessions.State(state)
	return &session, nil
}

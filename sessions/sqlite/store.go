// Package sqlite stores sessions in a single SQLite file using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-task-server/sessions"
	_ "modernc.org/sqlite"
)

var _ sessions.Repo = (*Store)(nil)

const busyTimeoutMillis = 5000

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    user_agent  TEXT NOT NULL DEFAULT '',
    state       TEXT NOT NULL DEFAULT 'valid' CHECK (state IN ('valid', 'revoked')),
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_id_state ON sessions (user_id, state);
`

// Store keeps timestamps as unix nanoseconds so ordering and round trips do not
// depend on the driver's time formatting.
type Store struct {
	db      *sql.DB
	nowFunc func() time.Time
}

type Option func(*Store)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection serialises writes per row.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	s := &Store{db: db, nowFunc: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dsn turns path into a URI carrying the connection pragmas, so the driver
// applies them to every connection the pool opens.
func dsn(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(" + strconv.Itoa(busyTimeoutMillis) + ")"
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, userID, userAgent string) (*sessions.Session, error) {
	now := s.nowFunc().UTC()
	session := &sessions.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		State:     sessions.StateValid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, user_agent, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.ID, session.UserID, session.UserAgent, string(session.State), now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*sessions.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_agent, state, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sessions.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return session, nil
}

func (s *Store) Invalidate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET state = 'revoked',
		    updated_at = CASE WHEN state = 'valid' THEN ? ELSE updated_at END
		WHERE id = ?
	`, s.nowFunc().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n == 0 {
		return sessions.ErrNotFound
	}
	return nil
}

func (s *Store) InvalidateAllForUser(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET state = 'revoked', updated_at = ?
		WHERE user_id = ? AND state = 'valid'
	`, s.nowFunc().UnixNano(), userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	return int(n), nil
}

func (s *Store) ListValidForUser(ctx context.Context, userID string) ([]*sessions.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, user_agent, state, created_at, updated_at
		FROM sessions
		WHERE user_id = ? AND state = 'valid'
		ORDER BY created_at DESC, rowid DESC
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

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*sessions.Session, error) {
	var (
		session          sessions.Session
		state            string
		created, updated int64
	)
	if err := row.Scan(&session.ID, &session.UserID, &session.UserAgent, &state, &created, &updated); err != nil {
		return nil, err
	}
	session.State = sessions.State(state)
	session.CreatedAt = time.Unix(0, created).UTC()
	session.UpdatedAt = time.Unix(0, updated).UTC()
	return &session, nil
}

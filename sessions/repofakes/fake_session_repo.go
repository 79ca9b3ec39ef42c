package fakesessionrepo

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-task-server/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps sessions in memory. Records are copied on the way in and
// out so callers never share state with the store.
type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	byUser   map[string][]string // userID -> session IDs
	nowFunc  func() time.Time
	lock     sync.RWMutex
}

type Option func(*FakeSessionRepo)

func WithNowFunc(now func() time.Time) Option {
	return func(sr *FakeSessionRepo) {
		sr.nowFunc = now
	}
}

func NewFakeSessionRepo(opts ...Option) *FakeSessionRepo {
	sr := &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
		byUser:   make(map[string][]string),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

func (sr *FakeSessionRepo) Create(_ context.Context, userID, userAgent string) (*sessions.Session, error) {
	now := sr.nowFunc()
	s := &sessions.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		UserAgent: userAgent,
		State:     sessions.StateValid,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.sessions[s.ID] = s
	sr.byUser[userID] = append(sr.byUser[userID], s.ID)

	out := *s
	return &out, nil
}

func (sr *FakeSessionRepo) FindByID(_ context.Context, id string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	s, ok := sr.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (sr *FakeSessionRepo) Invalidate(_ context.Context, id string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s, ok := sr.sessions[id]
	if !ok {
		return sessions.ErrNotFound
	}
	s.Revoke(sr.nowFunc())
	return nil
}

func (sr *FakeSessionRepo) InvalidateAllForUser(_ context.Context, userID string) (int, error) {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	now := sr.nowFunc()
	revoked := 0
	for _, id := range sr.byUser[userID] {
		if sr.sessions[id].Revoke(now) {
			revoked++
		}
	}
	return revoked, nil
}

func (sr *FakeSessionRepo) ListValidForUser(_ context.Context, userID string) ([]*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	list := make([]*sessions.Session, 0)
	for _, id := range sr.byUser[userID] {
		s := sr.sessions[id]
		if !s.Valid() {
			continue
		}
		out := *s
		list = append(list, &out)
	}

	// Creation order is append order, so reverse it for newest first.
	slices.Reverse(list)
	return list, nil
}

// Package sessiontest holds behaviour tests shared by every sessions.Repo backend.
package sessiontest

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/go-task-server/sessions"
	"github.com/stretchr/testify/require"
)

// RunRepoTests exercises repo against the sessions.Repo contract. newRepo must
// return an empty store for each call.
func RunRepoTests(t *testing.T, newRepo func(t *testing.T) sessions.Repo) {
	t.Run("CreateAndFind", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Create(ctx, "U1", "curl/8")
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		require.Equal(t, "U1", created.UserID)
		require.Equal(t, "curl/8", created.UserAgent)
		require.Equal(t, sessions.StateValid, created.State)
		require.True(t, created.Valid())
		require.False(t, created.CreatedAt.IsZero())

		found, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, found.ID)
		require.Equal(t, "U1", found.UserID)
		require.Equal(t, "curl/8", found.UserAgent)
		require.True(t, found.Valid())
	})

	t.Run("IDsAreUnique", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Create(ctx, "U1", "a")
		require.NoError(t, err)
		b, err := repo.Create(ctx, "U1", "a")
		require.NoError(t, err)
		require.NotEqual(t, a.ID, b.ID)
	})

	t.Run("FindUnknown", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(context.Background(), "does-not-exist")
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("InvalidateIsIdempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		s, err := repo.Create(ctx, "U1", "curl/8")
		require.NoError(t, err)

		require.NoError(t, repo.Invalidate(ctx, s.ID))
		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, sessions.StateRevoked, found.State)
		require.False(t, found.Valid())

		require.NoError(t, repo.Invalidate(ctx, s.ID))
		found, err = repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, sessions.StateRevoked, found.State)
		require.Equal(t, "U1", found.UserID)
		require.Equal(t, "curl/8", found.UserAgent)
	})

	t.Run("InvalidateUnknown", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Invalidate(context.Background(), "does-not-exist")
		require.ErrorIs(t, err, sessions.ErrNotFound)
	})

	t.Run("InvalidateAllForUser", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var mine []*sessions.Session
		for range 3 {
			s, err := repo.Create(ctx, "U1", "curl/8")
			require.NoError(t, err)
			mine = append(mine, s)
		}
		other, err := repo.Create(ctx, "U2", "curl/8")
		require.NoError(t, err)

		require.NoError(t, repo.Invalidate(ctx, mine[0].ID))

		n, err := repo.InvalidateAllForUser(ctx, "U1")
		require.NoError(t, err)
		require.Equal(t, 2, n)

		for _, s := range mine {
			found, err := repo.FindByID(ctx, s.ID)
			require.NoError(t, err)
			require.False(t, found.Valid())
		}

		found, err := repo.FindByID(ctx, other.ID)
		require.NoError(t, err)
		require.True(t, found.Valid())

		n, err = repo.InvalidateAllForUser(ctx, "U1")
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = repo.InvalidateAllForUser(ctx, "nobody")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("ListValidForUser", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Create(ctx, "U1", "first")
		require.NoError(t, err)
		second, err := repo.Create(ctx, "U1", "second")
		require.NoError(t, err)
		revoked, err := repo.Create(ctx, "U1", "revoked")
		require.NoError(t, err)
		_, err = repo.Create(ctx, "U2", "other")
		require.NoError(t, err)
		require.NoError(t, repo.Invalidate(ctx, revoked.ID))

		list, err := repo.ListValidForUser(ctx, "U1")
		require.NoError(t, err)
		require.Len(t, list, 2)

		ids := []string{list[0].ID, list[1].ID}
		require.ElementsMatch(t, []string{first.ID, second.ID}, ids)
		require.False(t, list[0].CreatedAt.Before(list[1].CreatedAt))

		list, err = repo.ListValidForUser(ctx, "nobody")
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("ConcurrentInvalidate", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		s, err := repo.Create(ctx, "U1", "curl/8")
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 16)
		for range 8 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				errs <- repo.Invalidate(ctx, s.ID)
			}()
			go func() {
				defer wg.Done()
				_, err := repo.FindByID(ctx, s.ID)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		require.Equal(t, sessions.StateRevoked, found.State)
	})
}

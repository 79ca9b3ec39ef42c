package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-task-server/users"
	"github.com/rs/zerolog/log"
)

// SeedUser creates the admin user named by SEED_USER_EMAIL and
// SEED_USER_PASSWORD. It does nothing when either is unset or the email is
// already registered. The password is never logged.
func (s *Server) SeedUser(_ context.Context) error {
	email := users.NormalizeEmail(s.config.GetSeedUserEmail())
	password := s.config.GetSeedUserPassword()
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repos.Users.GetByEmail(email)
	if err == nil && existing != nil {
		log.Info().Str("email", email).Msg("Bootstrap: seed user already exists")
		return nil
	}
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return fmt.Errorf("failed to look up seed user: %w", err)
	}

	if err := users.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("seed user password: %w", err)
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash seed user password: %w", err)
	}

	seed := &users.User{
		ID:           SeedUserID(email),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Roles:        []users.RoleType{users.RoleAdmin, users.RoleUser},
		DateJoined:   time.Now().UTC(),
	}
	if err := s.repos.Users.Upsert(seed); err != nil {
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	log.Info().Str("email", email).Str("user_id", seed.ID).Msg("Bootstrap: created seed user")
	return nil
}

// SeedUserID derives the seed user's id from its email, so the user keeps the
// same id across restarts and persisted sessions still resolve to it.
func SeedUserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+users.NormalizeEmail(email))).String()
}

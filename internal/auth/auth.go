// Package auth is the credential collaborator: it checks passwords and
// issues session tokens. The configuration core never sees credentials,
// only the authenticated subject identity and qualification flag.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rmarch/car-config/internal/core/domain"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/port"
	"github.com/rmarch/car-config/internal/token"
)

type Service struct {
	store    port.Store
	sessions *token.Issuer
	log      *logger.Logger
}

// NewService builds the auth collaborator. sessions is the issuer for
// session tokens; the short-lived estimation capability uses its own.
func NewService(store port.Store, sessions *token.Issuer, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		log:      log.With("service", "auth"),
	}
}

// Login verifies the credentials and returns a session token plus the
// authenticated user. Wrong username and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrUnauthorized
		}
		return "", nil, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Debug("password mismatch", "username", username)
		return "", nil, domain.ErrUnauthorized
	}

	tok, err := s.sessions.Sign(user.ID, user.Qualified)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return tok, user, nil
}

// Subject resolves a session token to the stored user, so the
// qualification flag is always read fresh rather than trusted from the
// token's issue time.
func (s *Service) Subject(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.sessions.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	id, err := claims.SubjectID()
	if err != nil {
		return nil, err
	}
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("look up user %d: %w", id, err)
	}
	return user, nil
}

// HashPassword is used by seeding tooling to produce stored hashes.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

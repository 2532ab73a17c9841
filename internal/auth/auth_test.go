package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmarch/car-config/internal/core/domain"
	"github.com/rmarch/car-config/internal/pkg/logger"
	"github.com/rmarch/car-config/internal/port"
	"github.com/rmarch/car-config/internal/token"
)

type userStore struct {
	users map[string]*domain.User
}

func (s *userStore) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *userStore) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *userStore) Models(ctx context.Context) ([]domain.Model, error) { return nil, nil }

func (s *userStore) Accessories(ctx context.Context) ([]domain.Accessory, error) { return nil, nil }

func (s *userStore) Availability(ctx context.Context) (map[string]int, error) { return nil, nil }

func (s *userStore) ConfigurationByOwner(ctx context.Context, owner int64) (*domain.Configuration, error) {
	return nil, nil
}
func (s *userStore) WithinTx(ctx context.Context, fn func(tx port.StoreTx) error) error {
	return nil
}

func newAuthService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("opensesame")
	require.NoError(t, err)

	store := &userStore{users: map[string]*domain.User{
		"alice": {ID: 1, Username: "alice", PasswordHash: hash, Qualified: true},
	}}
	return NewService(store, token.NewIssuer("test-secret", time.Minute), logger.NewNop())
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthService(t)

	tok, user, err := svc.Login(context.Background(), "alice", "opensesame")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.True(t, user.Qualified)

	resolved, err := svc.Subject(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolved.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newAuthService(t)
	_, _, err := svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newAuthService(t)
	_, _, err := svc.Login(context.Background(), "mallory", "opensesame")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSubject_BadToken(t *testing.T) {
	svc := newAuthService(t)
	_, err := svc.Subject(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]*models.User{}}
}

func (m *memoryUserStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrDuplicate
		}
	}
	user.ID = fmt.Sprintf("u%d", len(m.users)+1)
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, store.ErrNotFound
}

func (m *memoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func fakeIssuer(userID string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("token-%s-%s", userID, ttl), nil
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	users := newMemoryUserStore()
	svc := NewAuthService(users, fakeIssuer, time.Hour, nil)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterInput{
		FullName: "  Ada Lovelace ",
		Email:    "Ada@Example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	assert.Equal(t, "token-u1-1h0m0s", token)

	_, _, err = svc.Register(ctx, RegisterInput{FullName: "Other", Email: "ada@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	logged, token, err := svc.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceMe(t *testing.T) {
	users := newMemoryUserStore()
	svc := NewAuthService(users, fakeIssuer, time.Hour, nil)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{FullName: "Grace", Email: "grace@example.com", Password: "hopper"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", me.Email)

	_, err = svc.Me(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	users.err = errors.New("db down")
	_, err = svc.Me(ctx, user.ID)
	assert.ErrorIs(t, err, ErrStoreFailure)
}

func TestAuthServiceIssuerFailure(t *testing.T) {
	failing := func(string, time.Duration) (string, error) { return "", errors.New("no secret") }
	svc := NewAuthService(newMemoryUserStore(), failing, time.Hour, nil)

	_, _, err := svc.Register(context.Background(), RegisterInput{FullName: "Linus", Email: "l@example.com", Password: "kernel"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreFailure)
}

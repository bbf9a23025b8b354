package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/utils"
)

// TokenIssuer signs an access token for the user id.
type TokenIssuer func(userID string, ttl time.Duration) (string, error)

// RegisterInput carries the registration form.
type RegisterInput struct {
	FullName  string
	Email     string
	Password  string
	AvatarURL string
}

// AuthService registers users and issues access tokens.
type AuthService struct {
	users    store.UserStore
	issue    TokenIssuer
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users store.UserStore, issue TokenIssuer, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, issue: issue, tokenTTL: tokenTTL, logger: logger}
}

// Register creates an account and returns it with a fresh token.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", a.fail("register lookup", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    in.AvatarURL,
	}
	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", a.fail("register", err)
	}

	token, err := a.issue(user.ID, a.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (a *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := a.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", a.fail("login", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.issue(user.ID, a.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Me returns the account of the authenticated caller.
func (a *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, a.fail("me", err)
	}
	return user, nil
}

func (a *AuthService) fail(op string, err error) error {
	a.logger.Error("user store operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s", ErrStoreFailure, op)
}

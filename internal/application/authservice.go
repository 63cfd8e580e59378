package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// AuthService registers users and moves sessions between the anonymous and
// authenticated states. It holds no session state of its own.
type AuthService struct {
	store  driven.CredentialStore
	logger *slog.Logger
}

// NewAuthService creates an AuthService on the given credential store.
func NewAuthService(store driven.CredentialStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		logger: logger,
	}
}

// Register creates a user. The username is trimmed; empty usernames and
// passwords are rejected with model.ErrInvalidInput. An existing username
// yields model.ErrDuplicateUser.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", model.ErrInvalidInput)
	}

	if err := s.store.Register(ctx, username, password); err != nil {
		return err
	}

	s.logger.Info("user registered", "username", username)
	return nil
}

// Login authenticates sess as username when the password verifies. On
// failure it returns model.ErrInvalidCredentials and sess is unchanged. A
// successful login persists the session through the hooks on ctx.
func (s *AuthService) Login(ctx context.Context, sess *model.Session, username, password string) error {
	username = strings.TrimSpace(username)
	if !s.store.Verify(ctx, username, password) {
		s.logger.Info("login failed", "username", username)
		return model.ErrInvalidCredentials
	}

	sess.SignIn(username)
	persistSession(ctx)
	s.logger.Info("user logged in", "username", username)
	return nil
}

// Logout resets sess to anonymous and discards it through the hooks on ctx.
func (s *AuthService) Logout(ctx context.Context, sess *model.Session) {
	if username := sess.Username(); username != "" {
		s.logger.Info("user logged out", "username", username)
	}
	sess.SignOut()
	discardSession(ctx)
}

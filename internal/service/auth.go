package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/hash"
	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
)

type AuthService struct {
	Repo *repo.GormRepo
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l.Warn("login_failed", "reason", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := hash.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, hash.ErrMismatch) {
			l.Warn("login_failed", "reason", "password mismatch", "user_id", user.ID)
		} else {
			l.Error("login_failed", "reason", "stored password digest is unusable", "user_id", user.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// SeedUser creates the user when the email is not registered yet and reports
// whether it did.
func (s *AuthService) SeedUser(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, fmt.Errorf("email and password are required: %w", ErrValidation)
	}
	pwHash, err := hash.Generate(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.Repo.CreateUserIfNotExists(ctx, &models.User{Email: email, PasswordHash: pwHash})
	if err != nil {
		return false, fmt.Errorf("seed user: %w", err)
	}
	return created, nil
}

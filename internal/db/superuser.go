package db

import (
	"context"
	"errors"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/security"
)

type SuperuserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureSuperuser creates a staff superuser unless one with that email exists.
// It reports whether a user was created.
func EnsureSuperuser(ctx context.Context, users SuperuserStore, email, password, name string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	_, err := users.GetByEmail(ctx, user.NormalizeEmail(email))

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return false, err
	}

	u, err := user.NewSuperuser(email, hash, name)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, u)
	if errors.Is(err, user.ErrEmailTaken) {
		return false, nil
	}

	return err == nil, err
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	ErrTokenNotFound      = errors.New("token not found")
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type TokenStore interface {
	// GetOrCreate returns the user's token, inserting one with newKey if none exists.
	GetOrCreate(ctx context.Context, userID int64, newKey string) (Token, error)
	GetByKey(ctx context.Context, key string) (Token, error)
	Delete(ctx context.Context, key string) error
}

// TokenCache maps token keys to user ids. Misses fall back to the TokenStore.
type TokenCache interface {
	GetUserID(ctx context.Context, key string) (int64, bool)
	SetUserID(ctx context.Context, key string, userID int64)
	Delete(ctx context.Context, key string)
}

type Service struct {
	manager *Manager
	tokens  TokenStore
	users   UserStore
	cache   TokenCache
	now     func() time.Time
}

func NewService(manager *Manager, tokens TokenStore, users UserStore, cache TokenCache) *Service {
	if cache == nil {
		cache = noCache{}
	}

	return &Service{
		manager: manager,
		tokens:  tokens,
		users:   users,
		cache:   cache,
		now:     time.Now,
	}
}

// Authenticate checks the credentials and returns the user's bearer token,
// creating it on first success and reusing it afterwards. Unknown email and
// wrong password both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.BurnCompare(password)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	if !u.IsActive {
		return "", ErrInvalidCredentials
	}

	tok, err := s.tokens.GetOrCreate(ctx, u.ID, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("get or create token: %w", err)
	}

	if s.manager.Expired(tok, s.now()) {
		if err := s.tokens.Delete(ctx, tok.Key); err != nil {
			return "", fmt.Errorf("delete expired token: %w", err)
		}
		s.cache.Delete(ctx, tok.Key)

		tok, err = s.tokens.GetOrCreate(ctx, u.ID, uuid.NewString())
		if err != nil {
			return "", fmt.Errorf("rotate token: %w", err)
		}
	}

	return s.manager.Sign(tok)
}

// Resolve maps a presented bearer token to its active user.
func (s *Service) Resolve(ctx context.Context, raw string) (user.User, error) {
	claims, err := s.manager.Parse(raw)
	if err != nil {
		return user.User{}, err
	}

	userID, ok := s.cache.GetUserID(ctx, claims.ID)
	if !ok {
		tok, err := s.tokens.GetByKey(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				return user.User{}, ErrInvalidToken
			}
			return user.User{}, fmt.Errorf("lookup token: %w", err)
		}

		userID = tok.UserID
		s.cache.SetUserID(ctx, claims.ID, userID)
	}

	if userID != claims.UserID {
		return user.User{}, ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if !u.IsActive {
		return user.User{}, ErrInvalidToken
	}

	return u, nil
}

type noCache struct{}

func (noCache) GetUserID(context.Context, string) (int64, bool) { return 0, false }
func (noCache) SetUserID(context.Context, string, int64)        {}
func (noCache) Delete(context.Context, string)                  {}

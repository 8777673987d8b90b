package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.emailTaken(u.Email, 0) {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.userSeq++
	u.ID = r.s.userSeq
	r.s.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.users[u.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if r.s.emailTaken(u.Email, u.ID) {
		return user.User{}, user.ErrEmailTaken
	}

	cur.Email = u.Email
	cur.Name = u.Name
	cur.PasswordHash = u.PasswordHash
	cur.UpdatedAt = time.Now().UTC()
	r.s.users[u.ID] = cur

	return cur, nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// emailTaken reports whether another user than exceptID holds email.
func (s *Store) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

type TokensRepo struct {
	s *Store
}

func (r *TokensRepo) GetOrCreate(_ context.Context, userID int64, newKey string) (auth.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if key, ok := r.s.userTokens[userID]; ok {
		return r.s.tokens[key], nil
	}

	t := auth.Token{
		Key:       newKey,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	r.s.tokens[t.Key] = t
	r.s.userTokens[userID] = t.Key

	return t, nil
}

func (r *TokensRepo) GetByKey(_ context.Context, key string) (auth.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[key]
	if !ok {
		return auth.Token{}, auth.ErrTokenNotFound
	}

	return t, nil
}

func (r *TokensRepo) Delete(_ context.Context, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[key]; ok {
		delete(r.s.userTokens, t.UserID)
		delete(r.s.tokens, key)
	}

	return nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokensRepo struct {
	base
}

func NewTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *TokensRepo {
	return &TokensRepo{base{pool: pool, prom: prom}}
}

// GetOrCreate returns the user's token, inserting newKey when the user has
// none. The unique user_id column makes concurrent first logins converge on
// the same row.
func (r *TokensRepo) GetOrCreate(ctx context.Context, userID int64, newKey string) (auth.Token, error) {
	var t auth.Token

	err := r.observe("tokens.get_or_create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO auth_tokens (key, user_id, created_at)
			 VALUES ($1, $2, date_trunc('second', NOW()))
			 ON CONFLICT (user_id) DO NOTHING`,
			newKey, userID,
		)
		if err != nil {
			return err
		}

		return r.pool.QueryRow(ctx,
			`SELECT key, user_id, created_at FROM auth_tokens WHERE user_id = $1`,
			userID,
		).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	})

	if err != nil {
		return auth.Token{}, err
	}

	return t, nil
}

func (r *TokensRepo) GetByKey(ctx context.Context, key string) (auth.Token, error) {
	var t auth.Token

	err := r.observe("tokens.get_by_key", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT key, user_id, created_at FROM auth_tokens WHERE key = $1`,
			key,
		).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Token{}, auth.ErrTokenNotFound
		}
		return auth.Token{}, err
	}

	return t, nil
}

func (r *TokensRepo) Delete(ctx context.Context, key string) error {
	return r.observe("tokens.delete", func() error {
		_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE key = $1`, key)
		return err
	})
}

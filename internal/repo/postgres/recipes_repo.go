package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Price travels as text in both directions so NUMERIC(5,2) keeps its exact
// value without a decimal codec registered on the pool.
const recipeColumns = `r.id, r.user_id, r.title, r.description, r.time_minutes, r.price::text, r.link, r.image, r.created_at, r.updated_at`

type RecipesRepo struct {
	base
}

func NewRecipesRepo(pool *pgxpool.Pool, prom *observability.Prom) *RecipesRepo {
	return &RecipesRepo{base{pool: pool, prom: prom}}
}

func scanRecipe(row pgx.Row) (recipe.Recipe, error) {
	var r recipe.Recipe
	var price string

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.TimeMinutes,
		&price,
		&r.Link,
		&r.Image,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, err
	}

	r.Price, err = decimal.NewFromString(price)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("parse price %q: %w", price, err)
	}

	return r, nil
}

func (repo *RecipesRepo) List(ctx context.Context, userID int64, filter recipe.ListFilter) ([]recipe.Recipe, error) {
	conds := []string{"r.user_id = $1"}
	args := []any{userID}
	argsPosition := 2

	if len(filter.TagIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM recipe_tags rt WHERE rt.recipe_id = r.id AND rt.tag_id = ANY($%d))", argsPosition))
		args = append(args, filter.TagIDs)
		argsPosition++
	}

	if len(filter.IngredientIDs) > 0 {
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.recipe_id = r.id AND ri.ingredient_id = ANY($%d))", argsPosition))
		args = append(args, filter.IngredientIDs)
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes r WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY r.id DESC`

	var out []recipe.Recipe

	err := repo.observe("recipes.list", func() error {
		rows, err := repo.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]recipe.Recipe, 0)

		for rows.Next() {
			r, err := scanRecipe(rows)
			if err != nil {
				return err
			}
			out = append(out, r)
		}

		if err := rows.Err(); err != nil {
			return err
		}

		return attachRelations(ctx, repo.pool, out)
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (repo *RecipesRepo) Get(ctx context.Context, userID, id int64) (recipe.Recipe, error) {
	var r recipe.Recipe

	err := repo.observe("recipes.get", func() error {
		var err error
		r, err = getRecipe(ctx, repo.pool, userID, id)
		return err
	})

	return r, err
}

// Create inserts the recipe and resolves its nested tags and ingredients in
// one transaction.
func (repo *RecipesRepo) Create(ctx context.Context, userID int64, ch recipe.Changes) (recipe.Recipe, error) {
	rec := recipe.New(userID, ch)

	var out recipe.Recipe

	err := repo.observe("recipes.create", func() error {
		return repo.inTx(ctx, func(tx pgx.Tx) error {
			var id int64

			err := tx.QueryRow(ctx,
				`INSERT INTO recipes (user_id, title, description, time_minutes, price, link, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5::text::numeric, $6, $7, $8)
				 RETURNING id`,
				rec.UserID, rec.Title, rec.Description, rec.TimeMinutes, rec.Price.StringFixed(2), rec.Link, rec.CreatedAt, rec.UpdatedAt,
			).Scan(&id)
			if err != nil {
				return err
			}

			if err := replaceRelations(ctx, tx, userID, id, ch); err != nil {
				return err
			}

			out, err = getRecipe(ctx, tx, userID, id)
			return err
		})
	})

	if err != nil {
		return recipe.Recipe{}, err
	}

	return out, nil
}

// Update applies ch to the user's recipe. Supplied relation lists replace the
// current sets; absent ones are kept.
func (repo *RecipesRepo) Update(ctx context.Context, userID, id int64, ch recipe.Changes) (recipe.Recipe, error) {
	var out recipe.Recipe

	err := repo.observe("recipes.update", func() error {
		return repo.inTx(ctx, func(tx pgx.Tx) error {
			cur, err := scanRecipe(tx.QueryRow(ctx,
				`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1 AND r.user_id = $2 FOR UPDATE`,
				id, userID,
			))
			if err != nil {
				return err
			}

			next := cur.Apply(ch)

			_, err = tx.Exec(ctx,
				`UPDATE recipes
				 SET title = $3, description = $4, time_minutes = $5, price = $6::text::numeric, link = $7, updated_at = $8
				 WHERE id = $1 AND user_id = $2`,
				id, userID, next.Title, next.Description, next.TimeMinutes, next.Price.StringFixed(2), next.Link, next.UpdatedAt,
			)
			if err != nil {
				return err
			}

			if err := replaceRelations(ctx, tx, userID, id, ch); err != nil {
				return err
			}

			out, err = getRecipe(ctx, tx, userID, id)
			return err
		})
	})

	if err != nil {
		return recipe.Recipe{}, err
	}

	return out, nil
}

// SetImage stores the image key and returns the updated recipe.
func (repo *RecipesRepo) SetImage(ctx context.Context, userID, id int64, key string) (recipe.Recipe, error) {
	var out recipe.Recipe

	err := repo.observe("recipes.set_image", func() error {
		tag, err := repo.pool.Exec(ctx,
			`UPDATE recipes SET image = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			id, userID, key,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		out, err = getRecipe(ctx, repo.pool, userID, id)
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, err
	}

	return out, nil
}

func (repo *RecipesRepo) Delete(ctx context.Context, userID, id int64) error {
	var affected int64

	err := repo.observe("recipes.delete", func() error {
		tag, err := repo.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, id, userID)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return recipe.ErrNotFound
	}

	return nil
}

func getRecipe(ctx context.Context, q querier, userID, id int64) (recipe.Recipe, error) {
	r, err := scanRecipe(q.QueryRow(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1 AND r.user_id = $2`,
		id, userID,
	))
	if err != nil {
		return recipe.Recipe{}, err
	}

	list := []recipe.Recipe{r}
	if err := attachRelations(ctx, q, list); err != nil {
		return recipe.Recipe{}, err
	}

	return list[0], nil
}

func attachRelations(ctx context.Context, q querier, recipes []recipe.Recipe) error {
	ids := make([]int64, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}

	tags, err := tagTable.forRecipes(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}

	ingredients, err := ingredientTable.forRecipes(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}

	for i := range recipes {
		recipes[i].Tags = nonNil(tags[recipes[i].ID])
		recipes[i].Ingredients = nonNil(ingredients[recipes[i].ID])
	}

	return nil
}

func replaceRelations(ctx context.Context, tx pgx.Tx, userID, recipeID int64, ch recipe.Changes) error {
	if ch.Tags != nil {
		ids, err := tagTable.getOrCreate(ctx, tx, userID, recipe.UniqueNames(*ch.Tags))
		if err != nil {
			return err
		}
		if err := tagTable.replace(ctx, tx, recipeID, ids); err != nil {
			return fmt.Errorf("replace tags: %w", err)
		}
	}

	if ch.Ingredients != nil {
		ids, err := ingredientTable.getOrCreate(ctx, tx, userID, recipe.UniqueNames(*ch.Ingredients))
		if err != nil {
			return err
		}
		if err := ingredientTable.replace(ctx, tx, recipeID, ids); err != nil {
			return fmt.Errorf("replace ingredients: %w", err)
		}
	}

	return nil
}

func nonNil(in []recipe.Attribute) []recipe.Attribute {
	if in == nil {
		return []recipe.Attribute{}
	}
	return in
}

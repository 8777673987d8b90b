package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// attributeTable names the table, join table and join column for one Kind.
// Values are compile-time constants, never user input.
type attributeTable struct {
	kind   recipe.Kind
	table  string
	join   string
	column string
}

var (
	tagTable        = attributeTable{kind: recipe.KindTag, table: "tags", join: "recipe_tags", column: "tag_id"}
	ingredientTable = attributeTable{kind: recipe.KindIngredient, table: "ingredients", join: "recipe_ingredients", column: "ingredient_id"}
)

func (t attributeTable) op(name string) string {
	return t.table + "." + name
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AttributesRepo serves either tags or ingredients.
type AttributesRepo struct {
	base
	t attributeTable
}

func NewTagsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AttributesRepo {
	return &AttributesRepo{base: base{pool: pool, prom: prom}, t: tagTable}
}

func NewIngredientsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AttributesRepo {
	return &AttributesRepo{base: base{pool: pool, prom: prom}, t: ingredientTable}
}

func (r *AttributesRepo) List(ctx context.Context, userID int64, filter recipe.AttributeFilter) ([]recipe.Attribute, error) {
	q := fmt.Sprintf(`SELECT a.id, a.user_id, a.name FROM %s a WHERE a.user_id = $1`, r.t.table)

	if filter.AssignedOnly {
		q += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM %s j WHERE j.%s = a.id)`, r.t.join, r.t.column)
	}

	q += ` ORDER BY a.name DESC, a.id DESC`

	var rows pgx.Rows

	err := r.observe(r.t.op("list"), func() error {
		var err error
		rows, err = r.pool.Query(ctx, q, userID)
		return err
	})

	if err != nil {
		return nil, err
	}

	return collectAttributes(rows)
}

func (r *AttributesRepo) Get(ctx context.Context, userID, id int64) (recipe.Attribute, error) {
	var a recipe.Attribute

	err := r.observe(r.t.op("get"), func() error {
		return r.pool.QueryRow(ctx,
			fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE id = $1 AND user_id = $2`, r.t.table),
			id, userID,
		).Scan(&a.ID, &a.UserID, &a.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Attribute{}, recipe.ErrNotFound
		}
		return recipe.Attribute{}, err
	}

	return a, nil
}

func (r *AttributesRepo) Create(ctx context.Context, userID int64, name string) (recipe.Attribute, error) {
	var a recipe.Attribute

	err := r.observe(r.t.op("create"), func() error {
		return r.pool.QueryRow(ctx,
			fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id, user_id, name`, r.t.table),
			userID, name,
		).Scan(&a.ID, &a.UserID, &a.Name)
	})

	if err != nil {
		return recipe.Attribute{}, err
	}

	return a, nil
}

func (r *AttributesRepo) Update(ctx context.Context, userID, id int64, name string) (recipe.Attribute, error) {
	var a recipe.Attribute

	err := r.observe(r.t.op("update"), func() error {
		return r.pool.QueryRow(ctx,
			fmt.Sprintf(`UPDATE %s SET name = $3 WHERE id = $1 AND user_id = $2 RETURNING id, user_id, name`, r.t.table),
			id, userID, name,
		).Scan(&a.ID, &a.UserID, &a.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recipe.Attribute{}, recipe.ErrNotFound
		}
		return recipe.Attribute{}, err
	}

	return a, nil
}

func (r *AttributesRepo) Delete(ctx context.Context, userID, id int64) error {
	var affected int64

	err := r.observe(r.t.op("delete"), func() error {
		tag, err := r.pool.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.t.table),
			id, userID,
		)
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

// getOrCreate resolves each name to the user's row with that name, lowest id
// first, inserting the ones that do not exist yet. Output order follows names.
func (t attributeTable) getOrCreate(ctx context.Context, q querier, userID int64, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))

	for _, name := range names {
		var id int64

		err := q.QueryRow(ctx,
			fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1 AND name = $2 ORDER BY id ASC LIMIT 1`, t.table),
			userID, name,
		).Scan(&id)

		if errors.Is(err, pgx.ErrNoRows) {
			err = q.QueryRow(ctx,
				fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES ($1, $2) RETURNING id`, t.table),
				userID, name,
			).Scan(&id)
		}

		if err != nil {
			return nil, fmt.Errorf("resolve %s %q: %w", t.kind, name, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// replace sets the recipe's relation to exactly ids.
func (t attributeTable) replace(ctx context.Context, tx pgx.Tx, recipeID int64, ids []int64) error {
	_, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE recipe_id = $1`, t.join),
		recipeID,
	)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	_, err = tx.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (recipe_id, %s) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`, t.join, t.column),
		recipeID, ids,
	)
	return err
}

// forRecipes loads the attributes attached to the given recipes, keyed by
// recipe id and ordered by attribute id.
func (t attributeTable) forRecipes(ctx context.Context, q querier, recipeIDs []int64) (map[int64][]recipe.Attribute, error) {
	out := make(map[int64][]recipe.Attribute, len(recipeIDs))

	if len(recipeIDs) == 0 {
		return out, nil
	}

	rows, err := q.Query(ctx,
		fmt.Sprintf(`SELECT j.recipe_id, a.id, a.user_id, a.name
		 FROM %s j
		 JOIN %s a ON a.id = j.%s
		 WHERE j.recipe_id = ANY($1)
		 ORDER BY a.id ASC`, t.join, t.table, t.column),
		recipeIDs,
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		var a recipe.Attribute

		if err := rows.Scan(&recipeID, &a.ID, &a.UserID, &a.Name); err != nil {
			return nil, err
		}
		out[recipeID] = append(out[recipeID], a)
	}

	return out, rows.Err()
}

func collectAttributes(rows pgx.Rows) ([]recipe.Attribute, error) {
	defer rows.Close()

	out := make([]recipe.Attribute, 0)

	for rows.Next() {
		var a recipe.Attribute
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

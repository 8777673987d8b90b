package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
)

type RecipesRepo struct {
	s *Store
}

func (r *RecipesRepo) List(_ context.Context, userID int64, filter recipe.ListFilter) ([]recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]recipe.Recipe, 0)

	for id, rec := range r.s.recipes {
		if rec.UserID != userID {
			continue
		}
		if len(filter.TagIDs) > 0 && !r.s.tags.linkedToAny(id, filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !r.s.ingredients.linkedToAny(id, filter.IngredientIDs) {
			continue
		}
		out = append(out, r.s.hydrate(rec))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	return out, nil
}

func (r *RecipesRepo) Get(_ context.Context, userID, id int64) (recipe.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, err := r.s.ownedRecipe(userID, id)
	if err != nil {
		return recipe.Recipe{}, err
	}

	return r.s.hydrate(rec), nil
}

func (r *RecipesRepo) Create(_ context.Context, userID int64, ch recipe.Changes) (recipe.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec := recipe.New(userID, ch)
	rec.Tags, rec.Ingredients = nil, nil

	r.s.recipeSeq++
	rec.ID = r.s.recipeSeq
	r.s.recipes[rec.ID] = rec

	r.s.replaceRelations(userID, rec.ID, ch)

	return r.s.hydrate(rec), nil
}

func (r *RecipesRepo) Update(_ context.Context, userID, id int64, ch recipe.Changes) (recipe.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, err := r.s.ownedRecipe(userID, id)
	if err != nil {
		return recipe.Recipe{}, err
	}

	next := cur.Apply(ch)
	r.s.recipes[id] = next

	r.s.replaceRelations(userID, id, ch)

	return r.s.hydrate(next), nil
}

func (r *RecipesRepo) SetImage(_ context.Context, userID, id int64, key string) (recipe.Recipe, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, err := r.s.ownedRecipe(userID, id)
	if err != nil {
		return recipe.Recipe{}, err
	}

	rec.Image = key
	rec.UpdatedAt = time.Now().UTC()
	r.s.recipes[id] = rec

	return r.s.hydrate(rec), nil
}

func (r *RecipesRepo) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, err := r.s.ownedRecipe(userID, id); err != nil {
		return err
	}

	delete(r.s.recipes, id)
	delete(r.s.tags.links, id)
	delete(r.s.ingredients.links, id)

	return nil
}

func (s *Store) ownedRecipe(userID, id int64) (recipe.Recipe, error) {
	rec, ok := s.recipes[id]
	if !ok || rec.UserID != userID {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return rec, nil
}

func (s *Store) hydrate(rec recipe.Recipe) recipe.Recipe {
	rec.Tags = s.tags.forRecipe(rec.ID)
	rec.Ingredients = s.ingredients.forRecipe(rec.ID)
	return rec
}

func (s *Store) replaceRelations(userID, recipeID int64, ch recipe.Changes) {
	if ch.Tags != nil {
		s.tags.replace(userID, recipeID, *ch.Tags)
	}
	if ch.Ingredients != nil {
		s.ingredients.replace(userID, recipeID, *ch.Ingredients)
	}
}

// AttributesRepo serves either tags or ingredients.
type AttributesRepo struct {
	s *Store
	t *attributeTable
}

func (r *AttributesRepo) List(_ context.Context, userID int64, filter recipe.AttributeFilter) ([]recipe.Attribute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]recipe.Attribute, 0)

	for id, a := range r.t.items {
		if a.UserID != userID {
			continue
		}
		if filter.AssignedOnly && !r.t.assigned(id) {
			continue
		}
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := strings.Compare(out[i].Name, out[j].Name); c != 0 {
			return c > 0
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *AttributesRepo) Get(_ context.Context, userID, id int64) (recipe.Attribute, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.t.items[id]
	if !ok || a.UserID != userID {
		return recipe.Attribute{}, recipe.ErrNotFound
	}

	return a, nil
}

func (r *AttributesRepo) Create(_ context.Context, userID int64, name string) (recipe.Attribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.t.insert(userID, name), nil
}

func (r *AttributesRepo) Update(_ context.Context, userID, id int64, name string) (recipe.Attribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.t.items[id]
	if !ok || a.UserID != userID {
		return recipe.Attribute{}, recipe.ErrNotFound
	}

	a.Name = name
	r.t.items[id] = a

	return a, nil
}

func (r *AttributesRepo) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.t.items[id]
	if !ok || a.UserID != userID {
		return recipe.ErrNotFound
	}

	delete(r.t.items, id)
	r.t.unlinkAttribute(id)

	return nil
}

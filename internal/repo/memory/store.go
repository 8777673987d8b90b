package memory

import (
	"sort"
	"sync"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

// Store keeps every table in process memory behind one lock. Each
// operation, including nested tag/ingredient resolution, holds the lock for
// its whole duration, so writes are atomic with respect to each other.
type Store struct {
	mu sync.RWMutex

	userSeq     int64
	users       map[int64]user.User
	tokens      map[string]auth.Token
	userTokens  map[int64]string
	recipeSeq   int64
	recipes     map[int64]recipe.Recipe
	tags        *attributeTable
	ingredients *attributeTable
}

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]user.User),
		tokens:      make(map[string]auth.Token),
		userTokens:  make(map[int64]string),
		recipes:     make(map[int64]recipe.Recipe),
		tags:        newAttributeTable(recipe.KindTag),
		ingredients: newAttributeTable(recipe.KindIngredient),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Tokens() *TokensRepo {
	return &TokensRepo{s: s}
}

func (s *Store) Recipes() *RecipesRepo {
	return &RecipesRepo{s: s}
}

func (s *Store) Tags() *AttributesRepo {
	return &AttributesRepo{s: s, t: s.tags}
}

func (s *Store) Ingredients() *AttributesRepo {
	return &AttributesRepo{s: s, t: s.ingredients}
}

// attributeTable holds one attribute kind and its links to recipes.
type attributeTable struct {
	kind  recipe.Kind
	seq   int64
	items map[int64]recipe.Attribute
	links map[int64]map[int64]struct{} // recipe id -> attribute ids
}

func newAttributeTable(kind recipe.Kind) *attributeTable {
	return &attributeTable{
		kind:  kind,
		items: make(map[int64]recipe.Attribute),
		links: make(map[int64]map[int64]struct{}),
	}
}

func (t *attributeTable) insert(userID int64, name string) recipe.Attribute {
	t.seq++
	a := recipe.Attribute{ID: t.seq, UserID: userID, Name: name}
	t.items[a.ID] = a
	return a
}

// getOrCreate returns the lowest-id attribute the user owns with name, or a new one.
func (t *attributeTable) getOrCreate(userID int64, name string) int64 {
	var found int64

	for id, a := range t.items {
		if a.UserID != userID || a.Name != name {
			continue
		}
		if found == 0 || id < found {
			found = id
		}
	}

	if found != 0 {
		return found
	}

	return t.insert(userID, name).ID
}

func (t *attributeTable) replace(userID, recipeID int64, names []string) {
	set := make(map[int64]struct{}, len(names))

	for _, name := range recipe.UniqueNames(names) {
		set[t.getOrCreate(userID, name)] = struct{}{}
	}

	t.links[recipeID] = set
}

// forRecipe returns the attributes linked to recipeID ordered by id.
func (t *attributeTable) forRecipe(recipeID int64) []recipe.Attribute {
	out := make([]recipe.Attribute, 0, len(t.links[recipeID]))

	for id := range t.links[recipeID] {
		if a, ok := t.items[id]; ok {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}

func (t *attributeTable) assigned(id int64) bool {
	for _, set := range t.links {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (t *attributeTable) linkedToAny(recipeID int64, ids []int64) bool {
	set := t.links[recipeID]
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (t *attributeTable) unlinkAttribute(id int64) {
	for _, set := range t.links {
		delete(set, id)
	}
}

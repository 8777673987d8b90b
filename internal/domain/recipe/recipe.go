package recipe

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound covers both unknown ids and records owned by someone else.
var ErrNotFound = errors.New("not found")

type Recipe struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Image       string // storage key, empty when no image was uploaded
	Tags        []Tag
	Ingredients []Ingredient
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Changes carries a create or update payload. Nil fields are left untouched;
// a non-nil Tags/Ingredients replaces the whole relation set.
type Changes struct {
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Tags        *[]string
	Ingredients *[]string
}

// New builds a recipe owned by userID from a create payload. Relations are
// resolved by the store.
func New(userID int64, ch Changes) Recipe {
	now := time.Now().UTC()

	r := Recipe{
		UserID:      userID,
		Price:       decimal.Zero,
		Tags:        []Tag{},
		Ingredients: []Ingredient{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return r.Apply(ch)
}

// Apply copies the scalar fields present in ch. Owner and relations are never
// touched here.
func (r Recipe) Apply(ch Changes) Recipe {
	if ch.Title != nil {
		r.Title = strings.TrimSpace(*ch.Title)
	}
	if ch.Description != nil {
		r.Description = *ch.Description
	}
	if ch.TimeMinutes != nil {
		r.TimeMinutes = *ch.TimeMinutes
	}
	if ch.Price != nil {
		r.Price = ch.Price.Round(2)
	}
	if ch.Link != nil {
		r.Link = strings.TrimSpace(*ch.Link)
	}
	r.UpdatedAt = time.Now().UTC()
	return r
}

// ValidPrice reports whether d fits NUMERIC(5,2) and is not negative.
func ValidPrice(d decimal.Decimal) bool {
	if d.IsNegative() {
		return false
	}
	if !d.Equal(d.Truncate(2)) {
		return false
	}
	return d.LessThan(maxPrice)
}

var maxPrice = decimal.NewFromInt(1000)

// Summary is the list representation.
type Summary struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	TimeMinutes int          `json:"time_minutes"`
	Price       string       `json:"price"`
	Link        string       `json:"link"`
	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Detail is the single-record representation.
type Detail struct {
	Summary
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

func (r Recipe) Summary() Summary {
	tags := r.Tags
	if tags == nil {
		tags = []Tag{}
	}
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []Ingredient{}
	}

	return Summary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// Detail renders the recipe; imageURL maps a storage key to a public URL.
func (r Recipe) Detail(imageURL func(key string) string) Detail {
	d := Detail{
		Summary:     r.Summary(),
		Description: r.Description,
	}

	if r.Image != "" && imageURL != nil {
		u := imageURL(r.Image)
		d.Image = &u
	}

	return d
}

type ListFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

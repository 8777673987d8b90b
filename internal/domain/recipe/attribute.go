package recipe

import "strings"

// Attribute is a named, user-owned label attached to recipes. Tags and
// ingredients share the shape and differ only in Kind.
type Attribute struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}

type (
	Tag        = Attribute
	Ingredient = Attribute
)

type Kind string

const (
	KindTag        Kind = "tag"
	KindIngredient Kind = "ingredient"
)

func (k Kind) Plural() string {
	return string(k) + "s"
}

// Title is the capitalised singular used in error messages.
func (k Kind) Title() string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type AttributeFilter struct {
	AssignedOnly bool
}

// UniqueNames trims names and drops blanks and duplicates, keeping first-seen order.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}

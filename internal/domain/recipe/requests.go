package recipe

import "github.com/shopspring/decimal"

type NameInput struct {
	Name string `json:"name" binding:"required,notblank,max=255"`
}

// WriteRequest backs POST and PUT. Any owner/user field in the body is not
// bound and therefore ignored.
type WriteRequest struct {
	Title       string           `json:"title" binding:"required,notblank,max=255"`
	Description *string          `json:"description" binding:"omitnil,max=5000"`
	TimeMinutes *int             `json:"time_minutes" binding:"required,min=0,max=100000"`
	Price       *decimal.Decimal `json:"price" binding:"required,price"`
	Link        *string          `json:"link" binding:"omitnil,urlorblank,max=255"`
	Tags        *[]NameInput     `json:"tags" binding:"omitnil,dive"`
	Ingredients *[]NameInput     `json:"ingredients" binding:"omitnil,dive"`
}

type PatchRequest struct {
	Title       *string          `json:"title" binding:"omitnil,notblank,max=255"`
	Description *string          `json:"description" binding:"omitnil,max=5000"`
	TimeMinutes *int             `json:"time_minutes" binding:"omitnil,min=0,max=100000"`
	Price       *decimal.Decimal `json:"price" binding:"omitnil,price"`
	Link        *string          `json:"link" binding:"omitnil,urlorblank,max=255"`
	Tags        *[]NameInput     `json:"tags" binding:"omitnil,dive"`
	Ingredients *[]NameInput     `json:"ingredients" binding:"omitnil,dive"`
}

func (r WriteRequest) Changes() Changes {
	title := r.Title

	return Changes{
		Title:       &title,
		Description: r.Description,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        names(r.Tags),
		Ingredients: names(r.Ingredients),
	}
}

func (r PatchRequest) Changes() Changes {
	return Changes{
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price,
		Link:        r.Link,
		Tags:        names(r.Tags),
		Ingredients: names(r.Ingredients),
	}
}

func names(in *[]NameInput) *[]string {
	if in == nil {
		return nil
	}

	out := make([]string, 0, len(*in))
	for _, n := range *in {
		out = append(out, n.Name)
	}
	out = UniqueNames(out)

	return &out
}

type AttributeRequest struct {
	Name string `json:"name" binding:"required,notblank,max=255"`
}

type AttributePatchRequest struct {
	Name *string `json:"name" binding:"omitnil,notblank,max=255"`
}

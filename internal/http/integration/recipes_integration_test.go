package integration_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testApp) listAttributes(t *testing.T, token, path string) []attributeJSON {
	t.Helper()

	rr := a.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out []attributeJSON
	decode(t, rr, &out)

	return out
}

func (a *testApp) getRecipe(t *testing.T, token string, id int64) recipeJSON {
	t.Helper()

	rr := a.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/", id), token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var r recipeJSON
	decode(t, rr, &r)

	return r
}

func TestRecipes_RequireAuth(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/recipes/", "/api/tags/", "/api/ingredients/"} {
		rr := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestRecipes_CreateAndGetDetail(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	body := sampleRecipe("Curry")
	body["description"] = "Slow cooked"
	created := app.createRecipe(t, token, body)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "5.25", created.Price)
	assert.Nil(t, created.Image)
	assert.Empty(t, created.Tags)

	got := app.getRecipe(t, token, created.ID)
	assert.Equal(t, "Slow cooked", got.Description)
	assert.Equal(t, 22, got.TimeMinutes)
	assert.Equal(t, "https://example.com/recipe.pdf", got.Link)

	rr := app.do(t, http.MethodGet, "/api/recipes", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), `"description"`)
}

func TestRecipes_ListNewestFirst(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	first := app.createRecipe(t, token, sampleRecipe("First"))
	second := app.createRecipe(t, token, sampleRecipe("Second"))

	rr := app.do(t, http.MethodGet, "/api/recipes/", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []recipeJSON
	decode(t, rr, &list)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestRecipes_InvalidPayloads(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	tests := []struct {
		name  string
		patch map[string]any
		field string
	}{
		{name: "negative time", patch: map[string]any{"time_minutes": -1}, field: "time_minutes"},
		{name: "too many decimals", patch: map[string]any{"price": "1.234"}, field: "price"},
		{name: "price too large", patch: map[string]any{"price": "1000.00"}, field: "price"},
		{name: "bad link", patch: map[string]any{"link": "ftp://x"}, field: "link"},
		{name: "blank tag", patch: map[string]any{"tags": []map[string]any{{"name": "  "}}}, field: "tags[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := sampleRecipe("Bad")
			for k, v := range tt.patch {
				body[k] = v
			}

			rr := app.do(t, http.MethodPost, "/api/recipes/", token, body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Contains(t, rr.Body.String(), `"field":"`+tt.field+`"`)
		})
	}

	rr := app.do(t, http.MethodGet, "/api/recipes/", token, nil)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestRecipes_NestedTagsAreReusedPerOwner(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	body := sampleRecipe("Thai curry")
	body["tags"] = []map[string]any{{"name": "Thai"}, {"name": "Dinner"}}
	body["ingredients"] = []map[string]any{{"name": "Coconut milk"}}

	first := app.createRecipe(t, token, body)
	require.Len(t, first.Tags, 2)
	require.Len(t, first.Ingredients, 1)

	body["title"] = "Thai soup"
	second := app.createRecipe(t, token, body)
	require.Len(t, second.Tags, 2)

	tags := app.listAttributes(t, token, "/api/tags/")
	require.Len(t, tags, 2)

	// name DESC
	assert.Equal(t, "Thai", tags[0].Name)
	assert.Equal(t, "Dinner", tags[1].Name)

	assert.ElementsMatch(t, first.Tags, second.Tags)

	// another user gets their own tags
	other := app.register(t, "other@example.com", "testpass123")
	theirs := app.createRecipe(t, other, body)
	for _, tag := range theirs.Tags {
		assert.NotContains(t, []int64{tags[0].ID, tags[1].ID}, tag.ID)
	}
}

func TestRecipes_PatchEmptyTagsClearsLinksOnly(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	body := sampleRecipe("Curry")
	body["tags"] = []map[string]any{{"name": "Thai"}, {"name": "Dinner"}}
	created := app.createRecipe(t, token, body)

	rr := app.do(t, http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", created.ID), token, map[string]any{"tags": []any{}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := app.getRecipe(t, token, created.ID)
	assert.Empty(t, got.Tags)
	assert.Len(t, app.listAttributes(t, token, "/api/tags/"), 2)
	assert.Empty(t, app.listAttributes(t, token, "/api/tags/?assigned_only=1"))
}

func TestRecipes_PatchReplacesSuppliedRelation(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	body := sampleRecipe("Curry")
	body["tags"] = []map[string]any{{"name": "Thai"}}
	body["ingredients"] = []map[string]any{{"name": "Rice"}}
	created := app.createRecipe(t, token, body)

	rr := app.do(t, http.MethodPatch, fmt.Sprintf("/api/recipes/%d", created.ID), token, map[string]any{
		"tags": []map[string]any{{"name": "Indian"}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	got := app.getRecipe(t, token, created.ID)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "Indian", got.Tags[0].Name)
	require.Len(t, got.Ingredients, 1)
	assert.Equal(t, "Rice", got.Ingredients[0].Name)
}

func TestRecipes_PartialUpdateKeepsOtherFields(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	created := app.createRecipe(t, token, sampleRecipe("Curry"))

	rr := app.do(t, http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", created.ID), token, map[string]any{"title": "X"})
	require.Equal(t, http.StatusOK, rr.Code)

	got := app.getRecipe(t, token, created.ID)
	assert.Equal(t, "X", got.Title)
	assert.Equal(t, created.Link, got.Link)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, created.TimeMinutes, got.TimeMinutes)
}

func TestRecipes_FullUpdateRequiresMandatoryFields(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	created := app.createRecipe(t, token, sampleRecipe("Curry"))
	path := fmt.Sprintf("/api/recipes/%d/", created.ID)

	for _, missing := range []string{"title", "time_minutes", "price"} {
		body := sampleRecipe("Replaced")
		delete(body, missing)

		rr := app.do(t, http.MethodPut, path, token, body)
		require.Equal(t, http.StatusBadRequest, rr.Code, missing)
	}

	got := app.getRecipe(t, token, created.ID)
	assert.Equal(t, "Curry", got.Title)

	body := sampleRecipe("Replaced")
	body["price"] = "7.00"
	rr := app.do(t, http.MethodPut, path, token, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got = app.getRecipe(t, token, created.ID)
	assert.Equal(t, "Replaced", got.Title)
	assert.Equal(t, "7.00", got.Price)
}

func TestRecipes_OwnerFieldInPayloadIsIgnored(t *testing.T) {
	app := setupApp(t)
	alice := app.register(t, "alice@example.com", "testpass123")
	bob := app.register(t, "bob@example.com", "testpass123")

	created := app.createRecipe(t, alice, sampleRecipe("Curry"))

	for _, field := range []string{"user", "owner", "user_id"} {
		rr := app.do(t, http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", created.ID), alice, map[string]any{field: 999})
		require.Equal(t, http.StatusOK, rr.Code, field)
	}

	app.getRecipe(t, alice, created.ID)

	rr := app.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/", created.ID), bob, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOwnership_OtherUsersRecordsAreInvisible(t *testing.T) {
	app := setupApp(t)
	alice := app.register(t, "alice@example.com", "testpass123")
	bob := app.register(t, "bob@example.com", "testpass123")

	body := sampleRecipe("Curry")
	body["tags"] = []map[string]any{{"name": "Thai"}}
	body["ingredients"] = []map[string]any{{"name": "Rice"}}
	r := app.createRecipe(t, alice, body)

	resources := []struct {
		list string
		item string
	}{
		{list: "/api/recipes/", item: fmt.Sprintf("/api/recipes/%d/", r.ID)},
		{list: "/api/tags/", item: fmt.Sprintf("/api/tags/%d/", r.Tags[0].ID)},
		{list: "/api/ingredients/", item: fmt.Sprintf("/api/ingredients/%d/", r.Ingredients[0].ID)},
	}

	for _, res := range resources {
		rr := app.do(t, http.MethodGet, res.list, bob, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String(), res.list)

		rr = app.do(t, http.MethodGet, res.item, bob, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, res.item)

		rr = app.do(t, http.MethodDelete, res.item, bob, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code, res.item)

		rr = app.do(t, http.MethodPatch, res.item, bob, map[string]any{"name": "stolen", "title": "stolen"})
		assert.Equal(t, http.StatusNotFound, rr.Code, res.item)

		rr = app.do(t, http.MethodGet, res.item, alice, nil)
		assert.Equal(t, http.StatusOK, rr.Code, res.item)
		assert.NotContains(t, rr.Body.String(), "stolen")
	}
}

func TestRecipes_NonNumericIDIsNotFound(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	rr := app.do(t, http.MethodGet, "/api/recipes/abc/", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecipes_FilterByTagsAndIngredients(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	vegan := sampleRecipe("Salad")
	vegan["tags"] = []map[string]any{{"name": "Vegan"}}
	salad := app.createRecipe(t, token, vegan)

	meat := sampleRecipe("Steak")
	meat["ingredients"] = []map[string]any{{"name": "Beef"}}
	steak := app.createRecipe(t, token, meat)

	app.createRecipe(t, token, sampleRecipe("Plain"))

	rr := app.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/?tags=%d", salad.Tags[0].ID), token, nil)
	var list []recipeJSON
	decode(t, rr, &list)
	require.Len(t, list, 1)
	assert.Equal(t, salad.ID, list[0].ID)

	rr = app.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/?ingredients=%d", steak.Ingredients[0].ID), token, nil)
	list = nil
	decode(t, rr, &list)
	require.Len(t, list, 1)
	assert.Equal(t, steak.ID, list[0].ID)

	rr = app.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/?tags=%d&ingredients=%d", salad.Tags[0].ID, steak.Ingredients[0].ID), token, nil)
	list = nil
	decode(t, rr, &list)
	assert.Empty(t, list)
}

func TestRecipes_DeleteKeepsAttributes(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	body := sampleRecipe("Curry")
	body["tags"] = []map[string]any{{"name": "Thai"}}
	created := app.createRecipe(t, token, body)

	rr := app.do(t, http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", created.ID), token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = app.do(t, http.MethodGet, fmt.Sprintf("/api/recipes/%d/", created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Len(t, app.listAttributes(t, token, "/api/tags/"), 1)
}

func TestTags_CRUD(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	rr := app.do(t, http.MethodPost, "/api/tags/", token, map[string]any{"name": "Dessert"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var tag attributeJSON
	decode(t, rr, &tag)

	item := fmt.Sprintf("/api/tags/%d/", tag.ID)

	rr = app.do(t, http.MethodPut, item, token, map[string]any{"name": "Sweets"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"name":"Sweets"}`, tag.ID), rr.Body.String())

	rr = app.do(t, http.MethodPut, item, token, map[string]any{})
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = app.do(t, http.MethodDelete, item, token, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = app.do(t, http.MethodGet, item, token, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestIngredients_AssignedOnlyIsDistinct(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	body := sampleRecipe("Eggs on toast")
	body["ingredients"] = []map[string]any{{"name": "Eggs"}}
	app.createRecipe(t, token, body)
	body["title"] = "Omelette"
	app.createRecipe(t, token, body)

	rr := app.do(t, http.MethodPost, "/api/ingredients/", token, map[string]any{"name": "Salt"})
	require.Equal(t, http.StatusCreated, rr.Code)

	all := app.listAttributes(t, token, "/api/ingredients/")
	assert.Len(t, all, 2)

	assigned := app.listAttributes(t, token, "/api/ingredients/?assigned_only=1")
	require.Len(t, assigned, 1)
	assert.Equal(t, "Eggs", assigned[0].Name)
}

func TestRecipes_UploadImage(t *testing.T) {
	app := setupApp(t)
	token := app.register(t, "cook@example.com", "testpass123")

	created := app.createRecipe(t, token, sampleRecipe("Curry"))
	path := fmt.Sprintf("/api/recipes/%d/upload-image/", created.ID)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 128)...)

	rr := app.upload(t, token, path, "image", png)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		ID    int64  `json:"id"`
		Image string `json:"image"`
	}
	decode(t, rr, &resp)
	assert.Equal(t, created.ID, resp.ID)
	require.True(t, strings.HasPrefix(resp.Image, "/media/uploads/recipe/"), resp.Image)
	assert.True(t, strings.HasSuffix(resp.Image, ".png"))

	got := app.getRecipe(t, token, created.ID)
	require.NotNil(t, got.Image)
	assert.Equal(t, resp.Image, *got.Image)

	served := serve(app, newRequest(http.MethodGet, resp.Image))
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, png, served.Body.Bytes())

	rr = app.upload(t, token, path, "image", []byte("notanimage"))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = app.upload(t, token, path, "file", png)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	other := app.register(t, "other@example.com", "testpass123")
	rr = app.upload(t, other, path, "image", png)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func (a *testApp) upload(t *testing.T, token, path, field string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, "upload.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	return serve(a, req)
}

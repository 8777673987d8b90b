package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/geocoder89/recipehub/internal/storage"
	"github.com/gin-gonic/gin"
)

type RecipeStore interface {
	List(ctx context.Context, userID int64, filter recipe.ListFilter) ([]recipe.Recipe, error)
	Get(ctx context.Context, userID, id int64) (recipe.Recipe, error)
	Create(ctx context.Context, userID int64, ch recipe.Changes) (recipe.Recipe, error)
	Update(ctx context.Context, userID, id int64, ch recipe.Changes) (recipe.Recipe, error)
	SetImage(ctx context.Context, userID, id int64, key string) (recipe.Recipe, error)
	Delete(ctx context.Context, userID, id int64) error
}

type RecipesHandler struct {
	store  RecipeStore
	images storage.ImageStore
	log    *slog.Logger
}

func NewRecipesHandler(store RecipeStore, images storage.ImageStore, log *slog.Logger) *RecipesHandler {
	if log == nil {
		log = slog.Default()
	}

	return &RecipesHandler{store: store, images: images, log: log}
}

const recipeNotFound = "Recipe not found"

func (h *RecipesHandler) detail(r recipe.Recipe) recipe.Detail {
	if h.images == nil {
		return r.Detail(nil)
	}
	return r.Detail(h.images.URL)
}

func (h *RecipesHandler) ListRecipes(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	var filter recipe.ListFilter
	var err error

	if filter.TagIDs, err = parseIDList(ctx.Query("tags")); err != nil {
		RespondFieldError(ctx, "invalid_request", "Invalid query parameter", FieldError{Field: "tags", Rule: "ids", Message: err.Error()})
		return
	}
	if filter.IngredientIDs, err = parseIDList(ctx.Query("ingredients")); err != nil {
		RespondFieldError(ctx, "invalid_request", "Invalid query parameter", FieldError{Field: "ingredients", Rule: "ids", Message: err.Error()})
		return
	}

	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	recipes, err := h.store.List(cctx, userID, filter)

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list recipes", "err", err)
		RespondInternal(ctx, "Could not list recipes")
		return
	}

	out := make([]recipe.Summary, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, r.Summary())
	}

	RespondJSONWithETag(ctx, http.StatusOK, out)
}

func (h *RecipesHandler) CreateRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	var req recipe.WriteRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	r, err := h.store.Create(cctx, userID, req.Changes())

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create recipe", "err", err)
		RespondInternal(ctx, "Could not create recipe")
		return
	}

	ctx.JSON(http.StatusCreated, h.detail(r))
}

func (h *RecipesHandler) GetRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, recipeNotFound)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	r, err := h.store.Get(cctx, userID, id)

	if err != nil {
		h.respondStoreError(ctx, err, "Could not fetch recipe")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, h.detail(r))
}

// ReplaceRecipe handles PUT. Title, time_minutes and price are required;
// omitted optional fields keep their current values.
func (h *RecipesHandler) ReplaceRecipe(ctx *gin.Context) {
	var req recipe.WriteRequest

	h.update(ctx, &req, func() recipe.Changes { return req.Changes() })
}

func (h *RecipesHandler) PatchRecipe(ctx *gin.Context) {
	var req recipe.PatchRequest

	h.update(ctx, &req, func() recipe.Changes { return req.Changes() })
}

func (h *RecipesHandler) update(ctx *gin.Context, req interface{}, changes func() recipe.Changes) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, recipeNotFound)
	if !ok {
		return
	}

	if !BindJSON(ctx, req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	r, err := h.store.Update(cctx, userID, id, changes())

	if err != nil {
		h.respondStoreError(ctx, err, "Could not update recipe")
		return
	}

	ctx.JSON(http.StatusOK, h.detail(r))
}

func (h *RecipesHandler) DeleteRecipe(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, recipeNotFound)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	r, err := h.store.Get(cctx, userID, id)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not delete recipe")
		return
	}

	if err := h.store.Delete(cctx, userID, id); err != nil {
		h.respondStoreError(ctx, err, "Could not delete recipe")
		return
	}

	h.removeImage(ctx.Request.Context(), r.Image)

	ctx.Status(http.StatusNoContent)
}

// UploadImage stores the multipart "image" file and points the recipe at it.
func (h *RecipesHandler) UploadImage(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, recipeNotFound)
	if !ok {
		return
	}

	if h.images == nil {
		RespondInternal(ctx, "Image storage is not configured")
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	current, err := h.store.Get(cctx, userID, id)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not upload image")
		return
	}

	fh, err := ctx.FormFile("image")
	if middlewares.IsBodyTooLarge(err) {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", "Image is too large", nil)
		return
	}
	if err != nil {
		RespondFieldError(ctx, "invalid_request", "Invalid request body", FieldError{Field: "image", Rule: "required", Message: "is required"})
		return
	}

	file, err := fh.Open()
	if err != nil {
		RespondInternal(ctx, "Could not read upload")
		return
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		RespondInternal(ctx, "Could not read upload")
		return
	}
	head = head[:n]

	contentType := http.DetectContentType(head)

	key, err := storage.NewImageKey(contentType)
	if err != nil {
		RespondFieldError(ctx, "invalid_request", "Invalid request body", FieldError{
			Field:   "image",
			Rule:    "image",
			Message: "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		})
		return
	}

	body := io.MultiReader(bytes.NewReader(head), file)

	if err := h.images.Put(cctx, key, contentType, body, fh.Size); err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "store image", "err", err, "recipe_id", id)
		RespondInternal(ctx, "Could not store image")
		return
	}

	updated, err := h.store.SetImage(cctx, userID, id, key)
	if err != nil {
		h.removeImage(ctx.Request.Context(), key)
		h.respondStoreError(ctx, err, "Could not upload image")
		return
	}

	h.removeImage(ctx.Request.Context(), current.Image)

	ctx.JSON(http.StatusOK, gin.H{
		"id":    updated.ID,
		"image": h.images.URL(updated.Image),
	})
}

// removeImage deletes a stored image on a best effort basis.
func (h *RecipesHandler) removeImage(ctx context.Context, key string) {
	if key == "" || h.images == nil {
		return
	}

	if err := h.images.Delete(ctx, key); err != nil {
		h.log.WarnContext(ctx, "delete image", "err", err, "key", key)
	}
}

func (h *RecipesHandler) respondStoreError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, recipe.ErrNotFound) {
		RespondNotFound(ctx, recipeNotFound)
		return
	}

	h.log.ErrorContext(ctx.Request.Context(), message, "err", err)
	RespondInternal(ctx, message)
}

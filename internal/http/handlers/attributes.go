package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// AttributeStore is implemented by the tag and ingredient repositories.
type AttributeStore interface {
	List(ctx context.Context, userID int64, filter recipe.AttributeFilter) ([]recipe.Attribute, error)
	Get(ctx context.Context, userID, id int64) (recipe.Attribute, error)
	Create(ctx context.Context, userID int64, name string) (recipe.Attribute, error)
	Update(ctx context.Context, userID, id int64, name string) (recipe.Attribute, error)
	Delete(ctx context.Context, userID, id int64) error
}

// AttributesHandler serves /tags and /ingredients.
type AttributesHandler struct {
	kind     recipe.Kind
	store    AttributeStore
	log      *slog.Logger
	notFound string
}

func NewAttributesHandler(kind recipe.Kind, store AttributeStore, log *slog.Logger) *AttributesHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AttributesHandler{
		kind:     kind,
		store:    store,
		log:      log,
		notFound: kind.Title() + " not found",
	}
}

func (h *AttributesHandler) List(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	assignedOnly, err := queryFlag(ctx, "assigned_only")
	if err != nil {
		RespondFieldError(ctx, "invalid_request", "Invalid query parameter", FieldError{Field: "assigned_only", Rule: "boolean", Message: "must be 0 or 1"})
		return
	}

	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	items, err := h.store.List(cctx, userID, recipe.AttributeFilter{AssignedOnly: assignedOnly})

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list "+h.kind.Plural(), "err", err)
		RespondInternal(ctx, "Could not list "+h.kind.Plural())
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

func (h *AttributesHandler) Create(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	var req recipe.AttributeRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	a, err := h.store.Create(cctx, userID, strings.TrimSpace(req.Name))

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create "+string(h.kind), "err", err)
		RespondInternal(ctx, "Could not create "+string(h.kind))
		return
	}

	ctx.JSON(http.StatusCreated, a)
}

func (h *AttributesHandler) Get(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, h.notFound)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	a, err := h.store.Get(cctx, userID, id)

	if err != nil {
		h.respondStoreError(ctx, err, "Could not fetch "+string(h.kind))
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, a)
}

func (h *AttributesHandler) Replace(ctx *gin.Context) {
	var req recipe.AttributeRequest

	h.update(ctx, &req, func() *string { return &req.Name })
}

func (h *AttributesHandler) Patch(ctx *gin.Context) {
	var req recipe.AttributePatchRequest

	h.update(ctx, &req, func() *string { return req.Name })
}

func (h *AttributesHandler) update(ctx *gin.Context, req interface{}, name func() *string) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, h.notFound)
	if !ok {
		return
	}

	if !BindJSON(ctx, req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	var (
		a   recipe.Attribute
		err error
	)

	if n := name(); n != nil {
		a, err = h.store.Update(cctx, userID, id, strings.TrimSpace(*n))
	} else {
		a, err = h.store.Get(cctx, userID, id)
	}

	if err != nil {
		h.respondStoreError(ctx, err, "Could not update "+string(h.kind))
		return
	}

	ctx.JSON(http.StatusOK, a)
}

func (h *AttributesHandler) Delete(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	id, ok := pathID(ctx, h.notFound)
	if !ok {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	if err := h.store.Delete(cctx, userID, id); err != nil {
		h.respondStoreError(ctx, err, "Could not delete "+string(h.kind))
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AttributesHandler) respondStoreError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, recipe.ErrNotFound) {
		RespondNotFound(ctx, h.notFound)
		return
	}

	h.log.ErrorContext(ctx.Request.Context(), message, "err", err)
	RespondInternal(ctx, message)
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/geocoder89/recipehub/internal/observability"
	"github.com/geocoder89/recipehub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type UsersHandler struct {
	users UserStore
	auth  Authenticator
	prom  *observability.Prom
	log   *slog.Logger
}

func NewUsersHandler(users UserStore, authenticator Authenticator, prom *observability.Prom, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}

	return &UsersHandler{
		users: users,
		auth:  authenticator,
		prom:  prom,
		log:   log,
	}
}

var emailTakenField = FieldError{
	Field:   "email",
	Rule:    "unique",
	Message: "user with this email already exists",
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := user.New(req.Email, hash, req.Name)
	if err != nil {
		RespondFieldError(ctx, "invalid_request", "Invalid request body", FieldError{Field: "email", Rule: "required", Message: "is required"})
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	created, err := h.users.Create(cctx, u)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondFieldError(ctx, "email_taken", "Email is already in use.", emailTakenField)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "create user", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, created.Response())
}

// Token exchanges credentials for the user's bearer token.
func (h *UsersHandler) Token(ctx *gin.Context) {
	var req user.TokenRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	token, err := h.auth.Authenticate(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.prom.ObserveLogin("invalid")
			RespondUnAuthorized(ctx, "invalid_credentials", "Unable to authenticate with provided credentials.")
			return
		}

		h.prom.ObserveLogin("error")
		h.log.ErrorContext(ctx.Request.Context(), "authenticate", "err", err)
		RespondInternal(ctx, "Could not issue token")
		return
	}

	h.prom.ObserveLogin("ok")

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u.Response())
}

// ReplaceMe handles PUT: email, password and name are all required.
func (h *UsersHandler) ReplaceMe(ctx *gin.Context) {
	var req user.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	email, name := req.Email, req.Name
	h.updateMe(ctx, user.PatchRequest{Email: &email, Password: &req.Password, Name: &name})
}

// PatchMe handles PATCH: only the fields present change. An absent password
// keeps the current credential.
func (h *UsersHandler) PatchMe(ctx *gin.Context) {
	var req user.PatchRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.updateMe(ctx, req)
}

func (h *UsersHandler) updateMe(ctx *gin.Context, req user.PatchRequest) {
	current, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication credentials were not provided.")
		return
	}

	ch := user.Changes{Email: req.Email, Name: req.Name}

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)
		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}
		ch.PasswordHash = &hash
	}

	cctx, cancel := requestContext(ctx, writeTimeout)
	defer cancel()

	updated, err := h.users.Update(cctx, current.Apply(ch))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondFieldError(ctx, "email_taken", "Email is already in use.", emailTakenField)
			return
		}
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Invalid token.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "update user", "err", err)
		RespondInternal(ctx, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, updated.Response())
}

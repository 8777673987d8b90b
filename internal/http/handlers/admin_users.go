package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserLister interface {
	List(ctx context.Context) ([]user.User, error)
}

type AdminHandler struct {
	users UserLister
	log   *slog.Logger
}

func NewAdminHandler(users UserLister, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{users: users, log: log}
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, readTimeout)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list users", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	out := make([]user.AdminResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.AdminResponse())
	}

	ctx.JSON(http.StatusOK, out)
}

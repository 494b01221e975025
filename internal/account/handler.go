package account

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/shared/server/middleware"
	"sortir-backend/internal/shared/server/respond"
	"sortir-backend/internal/users"
)

type Handler struct {
	Svc          *Service
	SecureCookie bool
}

func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{Svc: svc, SecureCookie: secureCookie}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/account", h.deleteAccount)
}

func (h *Handler) deleteAccount(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}

	result, err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
			return
		}
		respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "failed to delete account", err)
		return
	}

	users.ClearSessionCookie(c, h.SecureCookie)
	respond.Success(c, http.StatusOK, gin.H{"deletedDocuments": result.DeletedDocuments})
}

package ask

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sortir-backend/internal/documents"
	"sortir-backend/internal/shared/server/middleware"
	"sortir-backend/internal/shared/server/respond"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Handler exposes the question endpoint.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ask", h.ask)
}

func (h *Handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	res, err := h.Svc.Ask(c.Request.Context(), middleware.UserIDFromContext(c), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrUpstream):
			respond.ErrorCause(c, http.StatusBadGateway, "upstream_error", "The answering service is unavailable right now. Please try again later.", err)
		case errors.Is(err, documents.ErrStorage):
			respond.ErrorCause(c, http.StatusInternalServerError, "storage_error", "Failed to load your documents", err)
		default:
			respond.ErrorCause(c, http.StatusInternalServerError, "internal_error", "Failed to answer the question", err)
		}
		return
	}

	sources := res.Sources
	if sources == nil {
		sources = []string{}
	}
	respond.OK(c, askResponse{Answer: res.Answer, Sources: sources, Truncated: res.Truncated})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stategrc/posturehub/internal/application/dto"
	appservice "github.com/stategrc/posturehub/internal/application/service"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// ContextHandler serves the context document.
type ContextHandler struct {
	builder *appservice.ContextAppService
	logger  logger.Logger
}

// NewContextHandler creates the context handler.
func NewContextHandler(builder *appservice.ContextAppService, log logger.Logger) *ContextHandler {
	return &ContextHandler{
		builder: builder,
		logger:  log.WithComponent("context_handler"),
	}
}

// Get handles GET /api/v1/context. The tenant_id query parameter narrows the
// document to one tenant; 404 means no rollup has been computed yet.
func (h *ContextHandler) Get(c *gin.Context) {
	doc, err := h.builder.Build(c.Request.Context(), c.Query("tenant_id"))
	if err != nil {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus(), dto.NewErrorResponse(appErr))
		return
	}

	c.JSON(http.StatusOK, doc)
}

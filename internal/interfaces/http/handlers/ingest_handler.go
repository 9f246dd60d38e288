// Package handlers contains the Gin handlers of the HTTP interface.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stategrc/posturehub/internal/application/dto"
	appservice "github.com/stategrc/posturehub/internal/application/service"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// IngestHandler serves snapshot ingestion. The access guard middleware has
// already authorized the request by the time the body is read here.
type IngestHandler struct {
	ingest *appservice.IngestAppService
	logger logger.Logger
}

// NewIngestHandler creates the ingestion handler.
func NewIngestHandler(ingest *appservice.IngestAppService, log logger.Logger) *IngestHandler {
	return &IngestHandler{
		ingest: ingest,
		logger: log.WithComponent("ingest_handler"),
	}
}

// Ingest handles POST /api/v1/posture/ingest.
func (h *IngestHandler) Ingest(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		appErr := errors.ErrValidationFailed("body", "required").WithCause(err)
		c.JSON(appErr.HTTPStatus(), dto.NewErrorResponse(appErr))
		return
	}

	resp, err := h.ingest.Ingest(c.Request.Context(), payload)
	if err != nil {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus(), dto.NewErrorResponse(appErr))
		return
	}

	c.JSON(http.StatusOK, resp)
}

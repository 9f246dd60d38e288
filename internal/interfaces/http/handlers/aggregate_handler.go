package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stategrc/posturehub/internal/application/dto"
	appservice "github.com/stategrc/posturehub/internal/application/service"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// AggregateHandler serves the manual aggregation trigger.
type AggregateHandler struct {
	aggregator *appservice.AggregateAppService
	logger     logger.Logger
}

// NewAggregateHandler creates the aggregation handler.
func NewAggregateHandler(aggregator *appservice.AggregateAppService, log logger.Logger) *AggregateHandler {
	return &AggregateHandler{
		aggregator: aggregator,
		logger:     log.WithComponent("aggregate_handler"),
	}
}

// Run handles POST /api/v1/aggregate/run. An overlapping run answers 409; an
// empty store answers 200 with skipped set.
func (h *AggregateHandler) Run(c *gin.Context) {
	rollup, err := h.aggregator.RunOnce(c.Request.Context(), time.Now().UTC())
	if err != nil {
		appErr := errors.AsAppError(err)
		c.JSON(appErr.HTTPStatus(), dto.NewErrorResponse(appErr))
		return
	}
	if rollup == nil {
		c.JSON(http.StatusOK, gin.H{"skipped": true, "reason": "no snapshots"})
		return
	}

	c.JSON(http.StatusOK, dto.NewRollupRunResponse(rollup))
}

package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/stategrc/posturehub/internal/application/dto"
	"github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/internal/infrastructure/monitoring"
	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
)

// AccessGuard authorizes ingestion requests from transport-level identifiers
// before any body is read. Rejected requests are answered with the error
// envelope; the guard itself writes the audit record.
func AccessGuard(guard *service.AccessGuard, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		req := service.GuardRequest{
			TenantID:      c.GetHeader(constants.HeaderTenantID),
			ClientCertB64: c.GetHeader(constants.HeaderClientCert),
			RemoteAddr:    c.ClientIP(),
		}
		if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
			req.RequestID = requestID
		}

		if err := guard.Authorize(ctx, req); err != nil {
			appErr := errors.AsAppError(err)
			metrics.RecordAccessRejection(appErr.Details["reason"])
			c.AbortWithStatusJSON(appErr.HTTPStatus(), dto.NewErrorResponse(appErr))
			return
		}

		ctx = context.WithValue(ctx, constants.ContextKeyTenantID, req.TenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

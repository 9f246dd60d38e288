// Package audit implements the access-decision audit sinks: a durable
// database log and an optional Kafka stream.
package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/pkg/logger"
)

var _ service.AuditSink = (*GormSink)(nil)

// GormSink appends access decisions to the access_audit_log table.
type GormSink struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewGormSink creates the database-backed audit sink.
func NewGormSink(db *gorm.DB, log logger.Logger) *GormSink {
	return &GormSink{db: db, logger: log.WithComponent("audit_db")}
}

// Record appends one decision. The table is append-only; records are never
// updated or deleted here.
func (s *GormSink) Record(ctx context.Context, decision *models.AccessDecision) error {
	if err := s.db.WithContext(ctx).Create(decision).Error; err != nil {
		s.logger.Error(ctx, "Failed to append audit record", err,
			logger.String("tenant_id", decision.TenantID),
			logger.String("reason", decision.Reason),
		)
		return err
	}
	return nil
}

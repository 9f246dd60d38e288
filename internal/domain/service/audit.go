// Package service contains the domain services of the ingestion pipeline:
// access guard, schema validator, and label normalizer.
package service

import (
	"context"

	"github.com/stategrc/posturehub/internal/domain/models"
)

// AuditSink receives access-guard decisions. Implementations append to the
// audit table and may additionally stream events to Kafka.
type AuditSink interface {
	Record(ctx context.Context, decision *models.AccessDecision) error
}

package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/stategrc/posturehub/internal/config"
	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/service"
	"github.com/stategrc/posturehub/pkg/logger"
)

var _ service.AuditSink = (*KafkaSink)(nil)

// KafkaSink streams access decisions to a Kafka topic for downstream SIEM
// consumption. It is optional; when disabled only the database sink runs.
type KafkaSink struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaSink creates the Kafka audit sink.
func NewKafkaSink(cfg config.KafkaConfig, log logger.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:  kafka.TCP(cfg.Brokers...),
		Topic: cfg.AuditTopic,
		// Hash on the message key: decisions for one tenant land on one
		// partition, keeping them ordered.
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaSink{
		writer: writer,
		logger: log.WithComponent("audit_kafka"),
	}
}

// Record publishes one decision, keyed by tenant so a tenant's decisions stay
// ordered within a partition.
func (s *KafkaSink) Record(ctx context.Context, decision *models.AccessDecision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		s.logger.Error(ctx, "Failed to marshal audit record", err)
		return err
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(decision.TenantID),
		Value: payload,
	})
	if err != nil {
		s.logger.Error(ctx, "Failed to publish audit record", err,
			logger.String("tenant_id", decision.TenantID),
		)
	}
	return err
}

// Close closes the underlying Kafka writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

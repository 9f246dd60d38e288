package audit

import (
	"context"
	"errors"

	"github.com/stategrc/posturehub/internal/domain/models"
	"github.com/stategrc/posturehub/internal/domain/service"
)

var _ service.AuditSink = (MultiSink)(nil)

// MultiSink fans one decision out to every configured sink. Each sink gets
// the record even when another fails; the joined error is returned.
type MultiSink []service.AuditSink

// NewMultiSink combines sinks, skipping nils.
func NewMultiSink(sinks ...service.AuditSink) MultiSink {
	out := make(MultiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Record delivers the decision to all sinks.
func (m MultiSink) Record(ctx context.Context, decision *models.AccessDecision) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, decision); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

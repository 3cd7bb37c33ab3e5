package auth

import (
	"context"
	"log/slog"
)

// AuditEvent is a structured record of a security-relevant decision.
type AuditEvent struct {
	Action        string
	PrincipalID   uint
	Resource      string
	RequiredRoles []string
	Reason        string
	TargetID      uint
}

// AuditSink consumes audit events. The directory emits one on every
// authorization denial, account deletion, and failed credential delivery.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// SlogAuditSink writes audit events through a structured logger.
type SlogAuditSink struct {
	logger *slog.Logger
}

var _ AuditSink = (*SlogAuditSink)(nil)

// NewSlogAuditSink creates a sink on the given logger, defaulting to slog's
// package-level logger when nil.
func NewSlogAuditSink(logger *slog.Logger) *SlogAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditSink{logger: logger}
}

// Record logs the event.
func (s *SlogAuditSink) Record(ctx context.Context, event AuditEvent) {
	s.logger.InfoContext(ctx, "audit",
		slog.String("action", event.Action),
		slog.Uint64("principal_id", uint64(event.PrincipalID)),
		slog.String("resource", event.Resource),
		slog.Any("required_roles", event.RequiredRoles),
		slog.String("reason", event.Reason),
		slog.Uint64("target_id", uint64(event.TargetID)),
	)
}

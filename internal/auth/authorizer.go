package auth

import (
	"context"

	apperrors "userdir/internal/errors"
	"userdir/internal/model"
)

// Authorizer decides whether a principal may invoke an operation guarded by
// a required-role set. Decisions fail closed: an empty or entirely
// unrecognized role set denies everyone rather than allowing anyone.
type Authorizer struct {
	audit AuditSink
}

// NewAuthorizer creates an authorizer emitting denial events to the sink.
func NewAuthorizer(audit AuditSink) *Authorizer {
	return &Authorizer{audit: audit}
}

// Authorize checks the principal against the required roles for a resource.
// Role spellings are normalized case-insensitively; unrecognized tokens are
// discarded from the allow-set, never treated as a wildcard. A deactivated
// principal is rejected before any role comparison.
func (a *Authorizer) Authorize(ctx context.Context, principal *model.Account, resource string, requiredRoles ...string) error {
	if principal == nil {
		return apperrors.ErrUnauthenticated
	}
	if principal.Deleted() {
		a.deny(ctx, principal, resource, requiredRoles, "account deactivated")
		return apperrors.ErrAccountDeactivated
	}

	allowed := make(map[model.Role]struct{}, len(requiredRoles))
	for _, raw := range requiredRoles {
		role, err := model.ParseRole(raw)
		if err != nil {
			continue
		}
		allowed[role] = struct{}{}
	}
	if len(allowed) == 0 {
		// A route without a usable policy is a configuration fault, not an
		// implicit allow.
		a.deny(ctx, principal, resource, requiredRoles, "empty role policy")
		return apperrors.ErrUnauthorized
	}

	if _, ok := allowed[principal.Role]; !ok {
		a.deny(ctx, principal, resource, requiredRoles, "role not permitted")
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (a *Authorizer) deny(ctx context.Context, principal *model.Account, resource string, required []string, reason string) {
	if a.audit == nil {
		return
	}
	a.audit.Record(ctx, AuditEvent{
		Action:        "authorization_denied",
		PrincipalID:   principal.ID,
		Resource:      resource,
		RequiredRoles: required,
		Reason:        reason,
	})
}

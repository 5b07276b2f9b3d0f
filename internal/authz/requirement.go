package authz

import (
	"errors"

	"github.com/castellan-io/castellan/internal/domain"
)

// Authorization outcomes. ErrUnauthenticated means no identity was presented
// (401); ErrForbidden means the identity lacks the required role or
// capability (403). Both gates fail closed.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

// Identity is the request-scoped authenticated identity produced by the
// authentication gate from a verified access token. It carries exactly what
// the token claims and is never persisted.
type Identity struct {
	SubjectID string
	Role      domain.Role
}

// Requirement is a declared authorization requirement for a route. Strict
// role membership and capability-set membership are variants of the same
// abstraction, evaluated by Registry.Authorize.
type Requirement interface {
	satisfiedBy(identity *Identity, registry *Registry) bool
}

type roleIn struct {
	allowed map[domain.Role]struct{}
}

func (r roleIn) satisfiedBy(identity *Identity, _ *Registry) bool {
	_, ok := r.allowed[identity.Role]
	return ok
}

// RoleIn requires the identity's role to be one of the allowed roles.
// Used for coarse role-gated routes.
func RoleIn(roles ...domain.Role) Requirement {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return roleIn{allowed: allowed}
}

type hasCapabilities struct {
	required []domain.Capability
}

func (h hasCapabilities) satisfiedBy(identity *Identity, registry *Registry) bool {
	return registry.CapabilitiesOf(identity.Role).HasAll(h.required...)
}

// HasCapabilities requires every listed capability to be granted to the
// identity's role. The check is conjunctive: a partial match is a deny. An
// empty list allows any authenticated identity.
func HasCapabilities(caps ...domain.Capability) Requirement {
	return hasCapabilities{required: caps}
}

// Authorize evaluates a requirement against an authenticated identity.
// A nil identity is rejected with ErrUnauthenticated before any policy runs;
// an unsatisfied requirement is rejected with ErrForbidden.
func (r *Registry) Authorize(identity *Identity, requirement Requirement) error {
	if identity == nil {
		return ErrUnauthenticated
	}
	if !requirement.satisfiedBy(identity, r) {
		return ErrForbidden
	}
	return nil
}

// Package authz holds the role→capability registry and the request
// authorization gate. Everything here is pure: decisions are a function of
// the identity, the requirement, and the registry, with no I/O.
package authz

import (
	"sort"

	"github.com/castellan-io/castellan/internal/domain"
)

// CapabilitySet is an immutable set of capabilities granted to a role.
type CapabilitySet map[domain.Capability]struct{}

// Has reports whether the set contains the capability.
func (s CapabilitySet) Has(c domain.Capability) bool {
	_, ok := s[c]
	return ok
}

// HasAll reports whether every given capability is in the set.
// An empty requirement is trivially satisfied.
func (s CapabilitySet) HasAll(caps ...domain.Capability) bool {
	for _, c := range caps {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Registry maps roles to the capabilities they grant. It is built once at
// process start and read-only afterwards; replacing it requires a restart.
type Registry struct {
	grants map[domain.Role]CapabilitySet
}

// NewRegistry builds a registry from per-role capability lists. The input
// slices are copied, so callers cannot mutate the registry afterwards.
func NewRegistry(grants map[domain.Role][]domain.Capability) *Registry {
	r := &Registry{grants: make(map[domain.Role]CapabilitySet, len(grants))}
	for role, caps := range grants {
		set := make(CapabilitySet, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		r.grants[role] = set
	}
	return r
}

// DefaultRegistry returns the canonical role→capability table.
func DefaultRegistry() *Registry {
	return NewRegistry(map[domain.Role][]domain.Capability{
		domain.RoleAdmin: {
			domain.CapabilityManageUsers,
			domain.CapabilityEditContent,
			domain.CapabilityViewReports,
		},
		domain.RoleEditor: {
			domain.CapabilityEditContent,
		},
		domain.RoleViewer: {
			domain.CapabilityViewContent,
		},
		domain.RoleModerator: {
			domain.CapabilityBanUsers,
			domain.CapabilityViewContent,
		},
	})
}

// CapabilitiesOf returns the capability set granted to a role. A role with no
// registry entry gets the empty set: an unrecognized role is capability-less,
// not an error.
func (r *Registry) CapabilitiesOf(role domain.Role) CapabilitySet {
	if set, ok := r.grants[role]; ok {
		return set
	}
	return CapabilitySet{}
}

// CapabilityList returns the capabilities of a role as a sorted slice
// suitable for serialization in identity summaries. Never nil.
func (r *Registry) CapabilityList(role domain.Role) []domain.Capability {
	set := r.CapabilitiesOf(role)
	caps := make([]domain.Capability, 0, len(set))
	for c := range set {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

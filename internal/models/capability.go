package models

// Capability names a coarse permission checked at every service boundary.
type Capability string

const (
	CapabilityReadContent  Capability = "read-content"
	CapabilityWriteContent Capability = "write-content"
	CapabilityManageUsers  Capability = "manage-users"
)

// CapabilitySet is the effective permission set of a principal.
type CapabilitySet map[Capability]struct{}

// Has reports whether the capability is present.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// CapabilitiesFor derives the capability set from the user's current flags.
// Admins hold every capability; regular users hold read-content only while
// their access flag is set.
func CapabilitiesFor(role UserRole, access bool) CapabilitySet {
	set := make(CapabilitySet, 3)
	if role == RoleAdmin {
		set[CapabilityReadContent] = struct{}{}
		set[CapabilityWriteContent] = struct{}{}
		set[CapabilityManageUsers] = struct{}{}
		return set
	}
	if access {
		set[CapabilityReadContent] = struct{}{}
	}
	return set
}

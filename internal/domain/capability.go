package domain

// Capability is a fine-grained permission tag. Capabilities are never stored
// on their own; a role grants a fixed set of them (see internal/authz).
type Capability string

const (
	CapabilityManageUsers Capability = "manage_users"
	CapabilityEditContent Capability = "edit_content"
	CapabilityViewReports Capability = "view_reports"
	CapabilityBanUsers    Capability = "ban_users"
	CapabilityViewContent Capability = "view_content"
)

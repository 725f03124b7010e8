package domain

// Role is the caller's role inside their organization, as asserted by the identity provider.
type Role string

const (
	RoleMember Role = "member"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
	// RoleSystem is used by trusted in-process callers (CLI, scheduled jobs). It is
	// never accepted from a token.
	RoleSystem Role = "system"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	UserID         string
	OrganizationID string
	Role           Role
}

// SystemCaller is the identity of trusted in-process invocations.
var SystemCaller = Caller{UserID: "system", Role: RoleSystem}

// IsStaff reports whether the caller may manage program content.
func (c Caller) IsStaff() bool {
	return c.Role == RoleCoach || c.Role == RoleAdmin || c.Role == RoleSystem
}

// CanAccessOrganization reports whether the caller may touch data of the organization.
func (c Caller) CanAccessOrganization(organizationID string) bool {
	if c.Role == RoleSystem {
		return true
	}
	return c.OrganizationID != "" && c.OrganizationID == organizationID
}

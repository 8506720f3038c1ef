package domain

import "time"

// Role represents a profile's role within its organization
type Role string

const (
	RoleMember        Role = "member"
	RoleOrgAdmin      Role = "org_admin"
	RolePlatformAdmin Role = "platform_admin"
)

// Profile represents a platform user within an organization.
// Insights is an append-only list of short facts surfaced by agents;
// entries are deduplicated by exact string match and never removed here.
type Profile struct {
	ID        string
	OrgID     string
	FullName  string
	Role      Role
	Insights  []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the profile may read team-level reports
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleOrgAdmin || p.Role == RolePlatformAdmin
}

// Organization represents a tenant
type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// ValidateOrganization checks required fields on an organization
func ValidateOrganization(org *Organization) error {
	if org.ID == "" || org.Name == "" {
		return ErrMissingRequiredField
	}
	return nil
}

// Group represents a named set of profiles within an organization.
// Dynamic groups have no stored membership rows; their members are
// computed from Rule by a membership evaluator at read time.
type Group struct {
	ID        string
	OrgID     string
	Name      string
	IsDynamic bool
	Rule      string
	CreatedAt time.Time
}

// GroupMember is one static membership row
type GroupMember struct {
	GroupID string
	UserID  string
	AddedAt time.Time
}

package model

import "time"

// Role is the closed set of HR roles assigned by the core HRM system.
// The chat subsystem never assigns roles; it only reads them off the
// verified identity claim.
type Role string

const (
	RoleAdmin             Role = "Admin"
	RoleVicePresident     Role = "VicePresident"
	RoleHRBusinessPartner Role = "HRBusinessPartner"
	RoleHRManager         Role = "HRManager"
	RoleHRExecutive       Role = "HRExecutive"
	RoleTeamManager       Role = "TeamManager"
	RoleTeamLeader        Role = "TeamLeader"
	RoleEmployee          Role = "Employee"
)

// AllRoles lists every valid role, used for validation and policy tests.
var AllRoles = []Role{
	RoleAdmin,
	RoleVicePresident,
	RoleHRBusinessPartner,
	RoleHRManager,
	RoleHRExecutive,
	RoleTeamManager,
	RoleTeamLeader,
	RoleEmployee,
}

func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Elevated roles can be contacted only through the connection-request
// workflow, and are themselves exempt from it when initiating.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleVicePresident
}

// Identity is the authenticated caller, as issued by the external auth
// service and verified by the JWT middleware.
type Identity struct {
	UserID string
	Role   Role
}

// Employee is a row of the directory read model maintained by the HR core.
type Employee struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AvailableUser is a directory entry annotated with the caller's chat
// standing toward that user.
type AvailableUser struct {
	Employee
	CanChat           bool `json:"can_chat"`
	NeedsApproval     bool `json:"needs_approval"`
	HasPendingRequest bool `json:"has_pending_request"`
}

package constants

// Role is the closed set of actors on the platform. Keep this a typed enum so
// authorization checks switch over it exhaustively instead of probing ad-hoc
// string slices.
type Role string

const (
	RoleParent        Role = "parent"
	RoleSchoolAdmin   Role = "school_admin"
	RoleSchoolStaff   Role = "school_staff"
	RolePlatformAdmin Role = "platform_admin"
)

// ParseRole maps a raw claim value onto the enum. Unknown values come back
// ok=false; callers must treat that as unauthorized, not as a new role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleParent, RoleSchoolAdmin, RoleSchoolStaff, RolePlatformAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

/* ==========================
   Capability checks
========================== */

// CanInitiatePayment: only parents pay school fees through the C2B flow.
func CanInitiatePayment(r Role) bool {
	switch r {
	case RoleParent:
		return true
	case RoleSchoolAdmin, RoleSchoolStaff, RolePlatformAdmin:
		return false
	}
	return false
}

// CanActForSchool: propose/approve/reject commission rates on the school side.
// School staff can view but never sign off.
func CanActForSchool(r Role) bool {
	switch r {
	case RoleSchoolAdmin:
		return true
	case RoleParent, RoleSchoolStaff, RolePlatformAdmin:
		return false
	}
	return false
}

// CanActForPlatform: the platform side of the dual-approval workflow.
func CanActForPlatform(r Role) bool {
	switch r {
	case RolePlatformAdmin:
		return true
	case RoleParent, RoleSchoolAdmin, RoleSchoolStaff:
		return false
	}
	return false
}

// CanViewFeeProgress: fee assignments and per-category progress. Parents see
// their own children; school staff see the school. Platform admins have no
// business reading student-level fees.
func CanViewFeeProgress(r Role) bool {
	switch r {
	case RoleParent, RoleSchoolAdmin, RoleSchoolStaff:
		return true
	case RolePlatformAdmin:
		return false
	}
	return false
}

// CanViewSchoolFinance: read-side dashboards and rate listings for a school.
func CanViewSchoolFinance(r Role) bool {
	switch r {
	case RoleSchoolAdmin, RoleSchoolStaff:
		return true
	case RoleParent, RolePlatformAdmin:
		return false
	}
	return false
}

package domain

import "fmt"

// InvalidTransitionError reports an illegal status change
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Role is the caller's role resolved once per request from the
// external session's claims
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleStaff         Role = "staff"
	RoleShipper       Role = "shipper"
	RoleAuthenticated Role = "authenticated"
	RoleAnon          Role = "anon"
)

// ParseRole maps an external claim value to a typed role; unknown
// values degrade to anon rather than failing the request
func ParseRole(claim string) Role {
	switch Role(claim) {
	case RoleAdmin, RoleStaff, RoleShipper, RoleAuthenticated:
		return Role(claim)
	}
	return RoleAnon
}

// CanManageOrders reports whether the role may perform administrative
// order lifecycle operations
func (r Role) CanManageOrders() bool {
	return r == RoleAdmin || r == RoleStaff
}

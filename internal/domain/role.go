package domain

import "strings"

// Role is the storefront mode a client is operating in. It selects which
// actions are offered; it is not an authentication mechanism.
type Role string

const (
	RoleNone     Role = "NONE"
	RoleMerchant Role = "MERCHANT"
	RoleShopper  Role = "SHOPPER"
)

// ParseRole maps free-form input to a Role, defaulting to RoleNone.
func ParseRole(raw string) Role {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RoleMerchant):
		return RoleMerchant
	case string(RoleShopper):
		return RoleShopper
	default:
		return RoleNone
	}
}

package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. The zero value is not a role.
type Role int

const (
	RoleUser Role = iota + 1
	RoleCompanyHR
)

// Roles lists every defined role.
var Roles = []Role{RoleUser, RoleCompanyHR}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleCompanyHR:
		return "Company_HR"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCompanyHR:
		return true
	default:
		return false
	}
}

// ParseRole maps the wire representation back to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.TrimSpace(s) {
	case "User":
		return RoleUser, nil
	case "Company_HR":
		return RoleCompanyHR, nil
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: role %d", ErrInvalidInput, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

package domain

import (
	"fmt"
	"strings"
)

// Role is a closed set of granted privileges. Free-form role strings only
// exist at the input-parsing boundary; everything past it works with these
// values.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// ParseRole maps an external role name onto the closed set. Accepts the
// short form used in request payloads ("user", "admin") as well as the
// canonical claim form.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "role_user":
		return RoleUser, nil
	case "admin", "role_admin":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// ParseRoles maps a set of external role names. An empty or nil input
// defaults to the user role, matching the signup contract.
func ParseRoles(names []string) ([]Role, error) {
	if len(names) == 0 {
		return []Role{RoleUser}, nil
	}

	seen := make(map[Role]struct{}, len(names))
	out := make([]Role, 0, len(names))
	for _, name := range names {
		role, err := ParseRole(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out, nil
}

// RoleNames returns the canonical string form of each role.
func RoleNames(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// HasAdmin reports whether the role set includes the admin role.
func HasAdmin(roles []Role) bool {
	for _, r := range roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

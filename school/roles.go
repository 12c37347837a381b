package school

import (
	"strings"

	"github.com/jrsteele09/go-school-client/claims"
)

// Role picks which views a user gets.
type Role string

const (
	RoleUnknown Role = ""
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

var rolePriorities = map[Role]int{
	RoleAdmin:   40,
	RoleFaculty: 30,
	RoleParent:  20,
	RoleStudent: 10,
}

var roleAliases = map[string]Role{
	"teacher":  RoleFaculty,
	"staff":    RoleFaculty,
	"guardian": RoleParent,
}

// RoleFromClaims returns the highest priority school role in the token.
func RoleFromClaims(c claims.Claims) Role {
	best := RoleUnknown
	for _, raw := range c.Roles() {
		role := parseRole(raw)
		if rolePriorities[role] > rolePriorities[best] {
			best = role
		}
	}
	return best
}

func parseRole(raw string) Role {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, "role_")
	if alias, ok := roleAliases[name]; ok {
		return alias
	}
	role := Role(name)
	if _, ok := rolePriorities[role]; ok {
		return role
	}
	return RoleUnknown
}

// CanManageAttendance reports whether the role may mark attendance and submit marks.
func (r Role) CanManageAttendance() bool {
	return r == RoleFaculty || r == RoleAdmin
}

// CanPostAnnouncements reports whether the role may publish announcements.
func (r Role) CanPostAnnouncements() bool {
	return r == RoleFaculty || r == RoleAdmin
}

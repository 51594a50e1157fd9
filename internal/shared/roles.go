package shared

import "strings"

// RoleAdmin is the only role permitted to archive, restore or permanently
// delete patient records.
const RoleAdmin = "admin"

// IsAdmin reports whether the caller-supplied role string is the admin role.
// Comparison is case-insensitive; surrounding whitespace is ignored.
func IsAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), RoleAdmin)
}

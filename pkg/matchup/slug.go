package matchup

import "strings"

// RoleSlug converts "Fast Physical Sweeper" to "fast-physical-sweeper".
func RoleSlug(role string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(role)), " ", "-")
}

// RoleFromSlug resolves a role by display name or slug.
func RoleFromSlug(s string) (string, bool) {
	want := RoleSlug(s)
	for _, r := range roles {
		if RoleSlug(r.name) == want {
			return r.name, true
		}
	}
	return "", false
}

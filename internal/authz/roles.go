package authz

// Tenant role names.
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleViewer    = "viewer"
)

// roleRanks orders tenant roles. A higher rank satisfies any
// requirement for a lower one.
var roleRanks = map[string]int{
	RoleOwner:     100,
	RoleAdmin:     75,
	RoleDeveloper: 50,
	RoleViewer:    25,
}

// RoleRank returns the numeric rank of a tenant role. Unknown or empty
// roles rank zero, below every defined role.
func RoleRank(role string) int {
	return roleRanks[role]
}

// RoleSatisfies reports whether the held role meets or exceeds the
// required role by rank comparison. Unknown roles rank zero on both
// sides, so an unknown requirement is satisfied by any role.
func RoleSatisfies(held, required string) bool {
	return RoleRank(held) >= RoleRank(required)
}

package model

// Role is the closed set of account roles. Authorization decisions are
// made against these values, never against raw strings from the database
// or a token claim.
type Role uint8

const (
	RoleReader Role = iota + 1
	RoleLibrarian
)

// ParseRole maps a stored role name onto a Role. The second return value
// is false for any name outside the known set.
func ParseRole(name string) (Role, bool) {
	switch name {
	case "reader":
		return RoleReader, true
	case "librarian":
		return RoleLibrarian, true
	}
	return 0, false
}

// String returns the role name as stored in the roles table and carried
// in JWT claims.
func (r Role) String() string {
	switch r {
	case RoleReader:
		return "reader"
	case RoleLibrarian:
		return "librarian"
	}
	return "unknown"
}

// Session identifies the authenticated caller for the duration of one
// request. It is built by the JWT middleware and passed explicitly to
// handlers instead of living in ambient state.
type Session struct {
	UserID uint64
	Role   Role
}

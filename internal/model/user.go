package model

import "time"

// User represents an application user record as stored in the `users`
// table. The role is normalized through the roles table; RoleID is the
// foreign key and RoleName carries the joined name when a query loads
// it. Handlers should convert RoleName through ParseRole rather than
// comparing the string directly.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name of the reader or librarian.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  RoleID       – foreign key into the roles table.
//  RoleName     – joined roles.name, empty when not selected.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password
	RoleID       uint8     // users.role_id (references roles.id)
	RoleName     string    // roles.name via join
	CreatedAt    time.Time // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token value is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}

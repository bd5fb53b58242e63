package model

import "time"

// User represents a row in the `users` table. Email is unique and
// stored lowercased. Role flags replace a role enum: a user can be an
// admin, a captain and a gold member at the same time. Gold members
// never require a captain assignment.
type User struct {
	ID           string    // users.id (uuid)
	Email        string    // users.email (unique, lowercase)
	Phone        string    // users.phone
	PasswordHash string    // users.password_hash (bcrypt)
	FirstName    *string   // users.first_name (nullable)
	LastName     *string   // users.last_name (nullable)
	IsAdmin      bool      // users.is_admin
	IsGoldMember bool      // users.is_goldmember
	IsCaptain    bool      // users.is_captain
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        string     // refresh_tokens.id (uuid)
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

package domain

import "context"

// User represents the core user model in the application domain.
// The JSON shape matches what the web client consumes, so record ids are
// exposed under the "_id" key.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Pic   string `json:"pic,omitempty"`

	// PasswordHash is only populated by credential lookups and is never
	// serialized.
	PasswordHash string `json:"-"`
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	// Create stores a new user with the given password hash and returns the
	// stored record. Returns ErrUserAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *User, passwordHash string) (*User, error)

	// FindByEmail returns the user with the given email, including the
	// password hash for credential checks. Returns ErrNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID returns the user with the given id. Returns ErrNotFound when
	// absent.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByIDs returns the users for the given ids, in no particular order.
	// Unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]User, error)

	// Search returns users whose name or email contains the term
	// (case-insensitive), excluding the user with excludeID.
	Search(ctx context.Context, term, excludeID string) ([]User, error)
}

package driven

import (
	"context"
)

// CredentialStore defines the driven port for username → password-hash
// persistence. Hashing is the adapter's concern; callers pass plaintext
// passwords and never see the stored hash.
type CredentialStore interface {
	// Exists reports whether username is registered.
	Exists(ctx context.Context, username string) bool

	// Register stores a new user. Returns model.ErrDuplicateUser if the
	// username is already registered; the existing record is left unchanged.
	Register(ctx context.Context, username, password string) error

	// Verify reports whether username exists and password matches its stored
	// hash. An unknown user and a wrong password both yield false.
	Verify(ctx context.Context, username, password string) bool
}

// PasswordHasher defines the driven port for the password hashing scheme
// used by a CredentialStore.
type PasswordHasher interface {
	// Scheme names the hashing scheme ("sha256", "bcrypt").
	Scheme() string

	// Hash returns the stored form of password.
	Hash(password string) (string, error)

	// Matches reports whether password hashes to hash under this scheme.
	Matches(hash, password string) bool
}

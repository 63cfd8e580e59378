// Package passhash implements the PasswordHasher port.
//
// SHA256 reproduces the legacy scheme of existing credential files: an
// unsalted, unstretched SHA-256 digest of the UTF-8 password, hex-encoded.
// It is weak and kept only so existing stored hashes keep verifying.
// Bcrypt is available for new stores by explicit configuration. Hashes are
// never converted from one scheme to the other.
package passhash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// Scheme names accepted by New.
const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.PasswordHasher = SHA256{}
	_ driven.PasswordHasher = Bcrypt{}
)

// New returns the hasher for the named scheme.
func New(scheme string) (driven.PasswordHasher, error) {
	switch scheme {
	case SchemeSHA256:
		return SHA256{}, nil
	case SchemeBcrypt:
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// SHA256 hashes passwords as lowercase hex SHA-256 digests.
type SHA256 struct{}

func (SHA256) Scheme() string { return SchemeSHA256 }

// Hash returns the hex SHA-256 digest of password. It never fails.
func (SHA256) Hash(password string) (string, error) {
	return HexSHA256(password), nil
}

// Matches compares in constant time.
func (SHA256) Matches(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HexSHA256(password))) == 1
}

// HexSHA256 returns the lowercase hex SHA-256 digest of s.
func HexSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Bcrypt hashes passwords with bcrypt at the given cost.
type Bcrypt struct {
	Cost int
}

func (Bcrypt) Scheme() string { return SchemeBcrypt }

func (b Bcrypt) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hashed), nil
}

func (Bcrypt) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Package credential verifies admin passwords against salted PBKDF2 hashes
// stored as "hex(salt):hex(derivedKey)".
package credential

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/streetbite/vendorhub/internal/domain"
	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations = 100000
	KeyLength  = 64
	SaltLength = 16
)

// ErrMalformedHash is returned when a stored hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// ErrUnknownAdmin is returned by stores that have no credential for a user.
var ErrUnknownAdmin = errors.New("unknown admin")

// Hash derives a new salted hash for password.
func Hash(password string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	key := derive(password, salt)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify re-derives the key for candidate with the stored salt and compares
// it with the stored key. A mismatch is (false, nil); only a malformed stored
// hash yields an error.
func Verify(candidate, stored string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(stored, ":")
	if !ok || saltHex == "" || keyHex == "" {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil {
		return false, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}
	if len(want) != KeyLength {
		return false, fmt.Errorf("%w: key is %d bytes, want %d", ErrMalformedHash, len(want), KeyLength)
	}

	got := derive(candidate, salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func derive(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeyLength, sha512.New)
}

// Store looks up the credential an admin logs in with.
type Store interface {
	Lookup(ctx context.Context, surface domain.AdminSurface, username string) (*domain.Admin, error)
}

// StaticStore serves a single configured credential, used for the email
// console whose hash lives in the environment.
type StaticStore struct {
	Admin domain.Admin
}

// Lookup returns the configured admin. An empty username matches it, since
// the email console only asks for a password.
func (s *StaticStore) Lookup(_ context.Context, surface domain.AdminSurface, username string) (*domain.Admin, error) {
	if s.Admin.PasswordHash == "" || surface != s.Admin.Surface {
		return nil, ErrUnknownAdmin
	}
	if username != "" && username != s.Admin.Username {
		return nil, ErrUnknownAdmin
	}
	a := s.Admin
	return &a, nil
}

// MultiStore routes lookups to a per-surface store.
type MultiStore map[domain.AdminSurface]Store

// Lookup delegates to the store registered for surface.
func (m MultiStore) Lookup(ctx context.Context, surface domain.AdminSurface, username string) (*domain.Admin, error) {
	s, ok := m[surface]
	if !ok {
		return nil, ErrUnknownAdmin
	}
	return s.Lookup(ctx, surface, username)
}

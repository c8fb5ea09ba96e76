// Package auth is the credential helper: it generates password salts,
// derives password hashes, and verifies password candidates. Plaintext
// passwords never leave this package's callers; only salt/hash pairs are
// stored.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"math/big"

	"golang.org/x/crypto/argon2"

	"github.com/avolkovs/imgboard/internal/common"
)

// Argon2id parameters for password hashing.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32

	// SaltSize is the number of random bytes in a salt (hex-encoded on the
	// user record, so the stored string is twice as long).
	SaltSize = 16

	// GeneratedPasswordLength is the length of plaintext passwords produced
	// by GeneratePassword for resets.
	GeneratedPasswordLength = 16
)

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CreateSalt returns a fresh random salt as a hex string.
func CreateSalt() (string, error) {
	return common.MakeRandHexString(SaltSize)
}

// HashPassword derives a hex-encoded Argon2id hash from the salt and
// plaintext password.
func HashPassword(salt, password string) string {
	sum := argon2.IDKey([]byte(password), []byte(salt), argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	return hex.EncodeToString(sum)
}

// VerifyPassword reports whether the candidate password, hashed with the
// given salt, matches the stored hash. The comparison is constant-time.
func VerifyPassword(salt, hash, password string) bool {
	candidate := HashPassword(salt, password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}

// GeneratePassword returns a random alphanumeric plaintext password for
// one-time delivery after a reset. The caller is responsible for hashing it
// before storage; the plaintext itself is never persisted.
func GeneratePassword() (string, error) {
	b := make([]byte, GeneratedPasswordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Package cryptox implements password salting and hashing for the credential
// store. Passwords are hashed with argon2id; only the hex-encoded salt and
// hash are ever stored or logged, never the plaintext.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/authserver/internal/common"
)

// SaltSize is the number of random bytes in a freshly generated salt.
const SaltSize = 16

// argon2id parameters.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// NewSalt returns a fresh random salt, hex-encoded so it is safe inside a
// comma-separated record.
func NewSalt() (string, error) {
	return common.MakeRandHexString(SaltSize)
}

// HashPassword derives the argon2id hash of password under the given
// hex-encoded salt and returns it hex-encoded.
func HashPassword(password, saltHex string) (string, error) {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return "", fmt.Errorf("decoding salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(hash), nil
}

// VerifyPassword reports whether password hashes to wantHashHex under the
// given salt. The comparison is constant-time.
func VerifyPassword(password, saltHex, wantHashHex string) bool {
	got, err := HashPassword(password, saltHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHashHex)) == 1
}

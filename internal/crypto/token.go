// Package crypto handles claw-token credentials: tokens are issued once in
// plaintext, stored only as salted PBKDF2 digests, and verified in constant
// time.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// pbkdf2Iterations is the OWASP-recommended minimum for HMAC-SHA256.
	pbkdf2Iterations = 480_000
	saltLen          = 16
	digestLen        = 32
	tokenBytes       = 24

	// tokenPrefix makes claw tokens greppable in leaked logs.
	tokenPrefix = "claw_"

	hashVersion = "v1"
)

// NewToken generates a fresh claw token. The plaintext is returned exactly
// once; persist only the hash.
func NewToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("crypto: generate token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(raw), nil
}

// HashToken derives the storable digest: "v1$<salt>$<digest>", both parts
// base64 standard encoded.
func HashToken(token string) (string, error) {
	if token == "" {
		return "", errors.New("crypto: token must not be empty")
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(token), salt, pbkdf2Iterations, digestLen, sha256.New)
	return strings.Join([]string{
		hashVersion,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(digest),
	}, "$"), nil
}

// VerifyToken reports whether the token matches the stored hash. The digest
// comparison is constant time; malformed hashes never match.
func VerifyToken(token, stored string) bool {
	if token == "" || stored == "" {
		return false
	}
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != hashVersion {
		return false
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(want) != digestLen {
		return false
	}
	got := pbkdf2.Key([]byte(token), salt, pbkdf2Iterations, digestLen, sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the single operator password. The server has
// exactly one account and login is rate limited per IP upstream, so these
// lean toward fast setup/login on small boxes (a NUC or a Pi next to the
// edit bay) rather than maximum hardness.
const (
	hashMemoryKiB    = 64 * 1024
	hashIterations   = 3
	hashThreads      = 4
	saltLength       = 16
	derivedKeyLength = 32

	// Hashing cost scales with input size. Cap it so a junk multi-megabyte
	// "password" on the open setup endpoint cannot burn CPU for free.
	maxPasswordLength = 1024
)

// hashParams are the cost parameters recovered from a stored hash. Kept
// separate from the constants above so old hashes verify unchanged after a
// parameter bump.
type hashParams struct {
	memoryKiB  uint32
	iterations uint32
	threads    uint8
	keyLength  uint32
}

// HashPassword derives an Argon2id hash of the operator password and
// returns it in the standard $argon2id$ encoded form.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, hashIterations, hashMemoryKiB, hashThreads, derivedKeyLength)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		hashMemoryKiB,
		hashIterations,
		hashThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword checks a candidate password against a stored encoded hash.
// Malformed stored hashes report a plain mismatch; login must not reveal
// anything about what is on disk.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > maxPasswordLength {
		return false, nil
	}

	salt, storedKey, params, err := parseEncodedHash(encodedHash)
	if err != nil {
		return false, nil
	}

	// Re-derive with the parameters the stored hash was created under.
	candidate := argon2.IDKey([]byte(password), salt, params.iterations, params.memoryKiB, params.threads, params.keyLength)

	return subtle.ConstantTimeCompare(storedKey, candidate) == 1, nil
}

// parseEncodedHash splits a $argon2id$v=..$m=..,t=..,p=..$salt$hash string
// into its salt, derived key, and cost parameters.
func parseEncodedHash(encodedHash string) (salt, key []byte, params *hashParams, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, errors.New("malformed hash")
	}
	if parts[1] != "argon2id" {
		return nil, nil, nil, fmt.Errorf("unsupported algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("malformed version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("incompatible argon2 version %d", version)
	}

	params = &hashParams{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memoryKiB, &params.iterations, &params.threads); err != nil {
		return nil, nil, nil, fmt.Errorf("malformed parameters: %w", err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, nil, fmt.Errorf("malformed salt: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, nil, fmt.Errorf("malformed key: %w", err)
	}

	//nolint:gosec // Derived keys are derivedKeyLength (32) bytes, conversion is safe
	params.keyLength = uint32(len(key))

	return salt, key, params, nil
}

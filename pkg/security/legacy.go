package security

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const scryptKeyLen = 64

// IsLegacyHash reports whether encoded uses the "method$salt$hex" layout
// written by the previous deployment (pbkdf2 or scrypt).
func IsLegacyHash(encoded string) bool {
	return strings.HasPrefix(encoded, "pbkdf2:") || strings.HasPrefix(encoded, "scrypt:")
}

func verifyLegacy(password, encoded string) (bool, error) {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return false, ErrInvalidHash
	}
	method, salt, expectedHex := parts[0], parts[1], parts[2]

	expected, err := hex.DecodeString(expectedHex)
	if err != nil || len(expected) == 0 {
		return false, ErrInvalidHash
	}

	tokens := strings.Split(method, ":")
	var computed []byte
	switch tokens[0] {
	case "pbkdf2":
		if len(tokens) < 2 {
			return false, ErrInvalidHash
		}
		digest, ok := legacyDigest(tokens[1])
		if !ok {
			return false, ErrInvalidHash
		}
		iterations := 600000
		if len(tokens) > 2 {
			iterations, err = strconv.Atoi(tokens[2])
			if err != nil || iterations <= 0 {
				return false, ErrInvalidHash
			}
		}
		computed = pbkdf2.Key([]byte(password), []byte(salt), iterations, len(expected), digest)

	case "scrypt":
		n, r, p := 32768, 8, 1
		if len(tokens) == 4 {
			n, err = strconv.Atoi(tokens[1])
			if err != nil {
				return false, ErrInvalidHash
			}
			if r, err = strconv.Atoi(tokens[2]); err != nil {
				return false, ErrInvalidHash
			}
			if p, err = strconv.Atoi(tokens[3]); err != nil {
				return false, ErrInvalidHash
			}
		}
		computed, err = scrypt.Key([]byte(password), []byte(salt), n, r, p, scryptKeyLen)
		if err != nil {
			return false, ErrInvalidHash
		}

	default:
		return false, ErrInvalidHash
	}

	return subtle.ConstantTimeCompare(expected, computed) == 1, nil
}

func legacyDigest(name string) (func() hash.Hash, bool) {
	switch name {
	case "sha256":
		return sha256.New, true
	case "sha512":
		return sha512.New, true
	case "sha1":
		return sha1.New, true
	default:
		return nil, false
	}
}

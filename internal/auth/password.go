package auth

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Iteration count werkzeug used when a pbkdf2 hash omits it
const werkzeugDefaultPBKDF2Iterations = 260000

// HashPassword hashes a password with bcrypt at the default cost
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks a password against a stored hash. Supported formats:
//   - bcrypt ($2a$, $2b$, $2y$)
//   - werkzeug "pbkdf2:<sha1|sha256|sha512>[:iterations]$salt$hexdigest"
//   - werkzeug "scrypt:N:r:p$salt$hexdigest"
//
// Unknown formats never verify.
func VerifyPassword(stored, password string) bool {
	switch {
	case stored == "":
		return false
	case strings.HasPrefix(stored, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case strings.HasPrefix(stored, "pbkdf2:"):
		return verifyWerkzeugPBKDF2(stored, password)
	case strings.HasPrefix(stored, "scrypt:"):
		return verifyWerkzeugScrypt(stored, password)
	default:
		return false
	}
}

func splitWerkzeug(stored string) (method, salt string, digest []byte, ok bool) {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return "", "", nil, false
	}
	digest, err := hex.DecodeString(parts[2])
	if err != nil || len(digest) == 0 {
		return "", "", nil, false
	}
	return parts[0], parts[1], digest, true
}

func verifyWerkzeugPBKDF2(stored, password string) bool {
	method, salt, want, ok := splitWerkzeug(stored)
	if !ok {
		return false
	}

	args := strings.Split(method, ":")
	if len(args) < 2 || len(args) > 3 {
		return false
	}

	var h func() hash.Hash
	switch args[1] {
	case "sha1":
		h = sha1.New
	case "sha256":
		h = sha256.New
	case "sha512":
		h = sha512.New
	default:
		return false
	}

	iterations := werkzeugDefaultPBKDF2Iterations
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 {
			return false
		}
		iterations = n
	}

	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), h)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func verifyWerkzeugScrypt(stored, password string) bool {
	method, salt, want, ok := splitWerkzeug(stored)
	if !ok {
		return false
	}

	args := strings.Split(method, ":")
	if len(args) != 4 {
		return false
	}
	n, errN := strconv.Atoi(args[1])
	r, errR := strconv.Atoi(args[2])
	p, errP := strconv.Atoi(args[3])
	if errN != nil || errR != nil || errP != nil {
		return false
	}

	got, err := scrypt.Key([]byte(password), []byte(salt), n, r, p, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Digest returns a SHA-256 hash of value, hex-encoded. Used for storing
// verification tokens and OTP codes without storing the raw value.
func Digest(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}

// DigestEqual performs constant-time comparison of the provided value's
// digest with the stored one. Returns true only if they match.
func DigestEqual(value, storedDigest string) bool {
	provided := Digest(value)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(storedDigest)) == 1
}

// RandomToken returns n random bytes from crypto/rand, hex-encoded.
// n must be at least 16 (128 bits of entropy).
func RandomToken(n int) (string, error) {
	if n < 16 {
		n = 16
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomDigits returns a numeric string of the given length drawn from
// crypto/rand. Each digit is unbiased (rejection sampling).
func RandomDigits(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	out := make([]byte, 0, length)
	buf := make([]byte, 1)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		// Reject values that would bias the modulo toward low digits.
		if buf[0] >= 250 {
			continue
		}
		out = append(out, '0'+buf[0]%10)
	}
	return string(out), nil
}

package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/pbkdf2"
)

const saltBytes = 16

var ten = big.NewInt(10)

// Generate returns a numeric code of the given length. Each digit is drawn
// independently from crypto/rand, so the distribution is uniform over 0-9.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}

	return string(code), nil
}

// NewSalt returns a fresh random salt, base64url encoded
func NewSalt() (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(salt), nil
}

// HashSecret derives a hex digest from the code with PBKDF2-SHA256. The
// iteration count makes offline guessing of the small numeric space costly.
func HashSecret(secret, salt string, iterations int) string {
	digest := pbkdf2.Key([]byte(secret), []byte(salt), iterations, sha256.Size, sha256.New)
	return hex.EncodeToString(digest)
}

// Compare hashes the candidate with the stored salt and compares it to the
// stored digest in constant time.
func Compare(candidate, salt, expectedHash string, iterations int) bool {
	candidateHash := HashSecret(candidate, salt, iterations)
	return subtle.ConstantTimeCompare([]byte(candidateHash), []byte(expectedHash)) == 1
}

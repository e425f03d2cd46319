package security

import (
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"
)

// Generated account passwords: 10 characters, digits guaranteed, no
// symbols (they get retyped from an email).
const (
	generatedPasswordLength = 10
	generatedPasswordDigits = 3
)

// HashPassword hashes a plain text password with bcrypt.
// DefaultCost is 10, which is also what the stored hashes were created with.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// GeneratePassword produces the one-time password mailed to a freshly
// created account.
func GeneratePassword() (string, error) {
	return password.Generate(generatedPasswordLength, generatedPasswordDigits, 0, false, true)
}

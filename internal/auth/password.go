package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/Asim-Shah-2004/medicine-app/internal/shared/errors"
)

const specialChars = `!@#$%^&*()-_=+[]{};:'",.<>/?\|~` + "`"

// HashPassword hashes a password with bcrypt at the given cost
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces the registration password rules:
// at least 8 characters with upper case, lower case, a digit and a
// special character.
func ValidatePasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	details := map[string]string{}
	if len(password) < 8 {
		details["password"] = "password must be at least 8 characters"
	} else if !hasUpper || !hasLower {
		details["password"] = "password must contain upper and lower case letters"
	} else if !hasDigit {
		details["password"] = "password must contain a digit"
	} else if !hasSpecial {
		details["password"] = "password must contain a special character"
	}

	if len(details) > 0 {
		return errors.Validation("password too weak", details)
	}
	return nil
}

package security

import (
	"errors"
	"fmt"
	"unicode"

	"chall_zone/internal/common"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("security.HashPassword: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is a
// mismatch.
func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword enforces the password policy: at least eight characters
// with a lowercase letter, an uppercase letter and a digit.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !lower || !upper || !digit {
		return fmt.Errorf("%w: password needs a lowercase letter, an uppercase letter and a digit", common.ErrValidation)
	}
	return nil
}

var ErrPasswordMismatch = errors.New("passwords do not match")

// ValidateNewPassword checks a password and its confirmation.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("%w: %w", common.ErrValidation, ErrPasswordMismatch)
	}
	return ValidatePassword(password)
}

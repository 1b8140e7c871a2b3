package service

import (
	"errors"
	"fmt"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// PasswordHasher hashes and compares secrets with bcrypt at a configured cost.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

func (h PasswordHasher) Hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", errs.Validation("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", errs.Validation("password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare returns errs.ErrInvalidCredential when password does not match hash.
func (h PasswordHasher) Compare(hash, password string) error {
	if hash == "" {
		return errs.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return errs.ErrInvalidCredential
	}
	return nil
}

package service

import (
	"fmt"

	"github.com/beanpass/internal/config"
)

// bcrypt 只处理前 72 字节
const maxPasswordBytes = 72

type passwordPolicyError struct {
	reason string
}

func (e passwordPolicyError) Error() string {
	return e.reason
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	minLength := policy.MinLength
	if minLength <= 0 {
		minLength = 8
	}
	if len([]rune(password)) < minLength {
		return passwordPolicyError{reason: fmt.Sprintf("Password must be at least %d characters", minLength)}
	}
	if len(password) > maxPasswordBytes {
		return passwordPolicyError{reason: fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes)}
	}
	return nil
}

package service

import (
	"errors"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrAlreadyFavorited   = errors.New("event is already in favorites")
	ErrNotFavorited       = errors.New("event is not in favorites")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCode        = errors.New("invalid password reset code")
	ErrTokenExpired       = errors.New("password reset code has expired, request a new one")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrUnauthorized       = errors.New("authentication credentials were not provided or are invalid")
)

// ValidationError 字段级校验失败，handler 以 {field: [messages]} 形式返回
type ValidationError struct {
	Field    string
	Messages []string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + strings.Join(e.Messages, "; ")
}

func newValidationError(field string, errs ...error) *ValidationError {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return &ValidationError{Field: field, Messages: msgs}
}

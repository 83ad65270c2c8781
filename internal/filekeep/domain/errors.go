package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotAuthenticated covers every login or session failure. Callers
	// never learn which check failed.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrThrottled        = errors.New("too many attempts")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrWeakPassword     = errors.New("password too short")
	ErrIdentityNotFound = errors.New("identity not found")

	ErrInvalidFilename     = errors.New("invalid filename")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	ErrFileTooLarge        = errors.New("file too large")
	ErrQuotaExceeded       = errors.New("storage quota exceeded")
	ErrFileNotFound        = errors.New("file not found")
)

// ThrottledError carries how long the caller should wait.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrThrottled, e.RetryAfter)
}

func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrUnauthenticated    = fmt.Errorf("unauthenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidDigest      = fmt.Errorf("invalid password digest")
	ErrNotGroupMember     = fmt.Errorf("sender is not a member of the group")

	ErrUserAlreadyExists = fmt.Errorf("username already taken")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrGroupNotFound     = fmt.Errorf("group not found")
	ErrFileNotFound      = fmt.Errorf("file not found")
	ErrTargetNotFound    = fmt.Errorf("target not found")

	ErrPersistence = fmt.Errorf("persistence failure")

	ErrInvalidRequest = fmt.Errorf("invalid request")
	ErrEmptyContent   = fmt.Errorf("message content is empty")
	ErrContentTooLong = fmt.Errorf("message content is too long")
	ErrFileTooLarge   = fmt.Errorf("file is too large")

	ErrAlreadyBound       = fmt.Errorf("connection already bound to another identity")
	ErrConnectionClosed   = fmt.Errorf("connection closed")
	ErrSendBufferFull     = fmt.Errorf("connection send buffer full")
	ErrInvalidTransition  = fmt.Errorf("invalid connection state transition")
	ErrUnsupportedMessage = fmt.Errorf("unsupported message kind")
)

// Is, As and Join are re-exported so callers importing this package under the
// name "errors" keep access to the standard helpers.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }

// HTTPStatus maps a domain error onto the status code returned by the HTTP boundary.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotGroupMember):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrFileNotFound), errors.Is(err, ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrEmptyContent), errors.Is(err, ErrContentTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

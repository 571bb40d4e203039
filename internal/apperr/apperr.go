// ABOUTME: Closed set of failure kinds shared by auth, account and task services
// ABOUTME: Each kind has one constructor; HTTP status mapping lives in the gateway

package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure category.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidToken
	KindUnauthorized
	KindUnknownPrincipal
	KindPermissionDenied
	KindResourceNotFound
	KindTargetNotFound
	KindDuplicateTitle
	KindDuplicateUser
	KindInvalidInput
	KindRegistrationFailed
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindInvalidToken:       "invalid_token",
	KindUnauthorized:       "unauthorized",
	KindUnknownPrincipal:   "unknown_principal",
	KindPermissionDenied:   "permission_denied",
	KindResourceNotFound:   "resource_not_found",
	KindTargetNotFound:     "target_not_found",
	KindDuplicateTitle:     "duplicate_title",
	KindDuplicateUser:      "duplicate_user",
	KindInvalidInput:       "invalid_input",
	KindRegistrationFailed: "registration_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a typed failure. Message is safe to show to clients; Err is the
// underlying cause and is only meant for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind that carries no message, which
// lets the Err* sentinels below be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrInternal           = &Error{Kind: KindInternal}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrUnknownPrincipal   = &Error{Kind: KindUnknownPrincipal}
	ErrPermissionDenied   = &Error{Kind: KindPermissionDenied}
	ErrResourceNotFound   = &Error{Kind: KindResourceNotFound}
	ErrTargetNotFound     = &Error{Kind: KindTargetNotFound}
	ErrDuplicateTitle     = &Error{Kind: KindDuplicateTitle}
	ErrDuplicateUser      = &Error{Kind: KindDuplicateUser}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrRegistrationFailed = &Error{Kind: KindRegistrationFailed}
)

// InvalidToken covers malformed, expired and badly signed tokens alike.
func InvalidToken(cause error) *Error {
	return &Error{Kind: KindInvalidToken, Message: "invalid token", Err: cause}
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Message: message}
}

func UnknownPrincipal(subject string) *Error {
	return &Error{Kind: KindUnknownPrincipal, Message: fmt.Sprintf("user with email '%s' not found", subject)}
}

func PermissionDenied(message string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: message}
}

func ResourceNotFound(message string) *Error {
	return &Error{Kind: KindResourceNotFound, Message: message}
}

func TargetNotFound(message string) *Error {
	return &Error{Kind: KindTargetNotFound, Message: message}
}

func DuplicateTitle(title string) *Error {
	return &Error{Kind: KindDuplicateTitle, Message: fmt.Sprintf("title '%s' is already taken", title)}
}

func DuplicateUser(message string) *Error {
	return &Error{Kind: KindDuplicateUser, Message: message}
}

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func RegistrationFailed(cause error) *Error {
	return &Error{Kind: KindRegistrationFailed, Message: "error user register", Err: cause}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-facing message for err. Causes of
// internal failures are never included.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

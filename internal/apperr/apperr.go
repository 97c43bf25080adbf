// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import "errors"

// Kind classifies an error for propagation decisions (HTTP status, retry, logging level).
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindConflict           Kind = "conflict"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindUnauthorized       Kind = "unauthorized"
)

// Error is a business error with a stable code and a short user-facing message.
// Err optionally carries the underlying cause; it is never shown to users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so wrapped copies still satisfy errors.Is
// against the package-level definitions.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of def carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// WithMessage returns a copy of def with a more specific user-facing message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg, Err: e.Err}
}

// Not found.
var (
	MemberNotFound  = &Error{Kind: KindNotFound, Code: "MEMBER_NOT_FOUND", Message: "member not found"}
	ItemNotFound    = &Error{Kind: KindNotFound, Code: "ITEM_NOT_FOUND", Message: "item not found"}
	SessionNotFound = &Error{Kind: KindNotFound, Code: "SESSION_NOT_FOUND", Message: "training session not found"}
)

// Invalid input.
var (
	InvalidInput       = &Error{Kind: KindInvalidInput, Code: "INVALID_INPUT", Message: "invalid input"}
	InvalidAmount      = &Error{Kind: KindInvalidInput, Code: "INVALID_AMOUNT", Message: "invalid point amount"}
	InvalidDate        = &Error{Kind: KindInvalidInput, Code: "INVALID_DATE", Message: "date must be formatted YYYY-MM-DD"}
	InsufficientPoints = &Error{Kind: KindInvalidInput, Code: "INSUFFICIENT_POINTS", Message: "point balance cannot become negative"}
)

// Conflict.
var (
	AlreadyCompleted = &Error{Kind: KindConflict, Code: "ALREADY_COMPLETED", Message: "member already completed this item"}
	NotPlaceholder   = &Error{Kind: KindConflict, Code: "NOT_PLACEHOLDER", Message: "member is not an offline placeholder"}
	EmailTaken       = &Error{Kind: KindConflict, Code: "EMAIL_TAKEN", Message: "email address already in use"}
)

// InvalidCredentials is returned by login for an unknown email or a wrong password.
var InvalidCredentials = &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}

// StorageUnavailable covers transient I/O failures of the store or object storage.
var StorageUnavailable = &Error{Kind: KindStorageUnavailable, Code: "STORAGE_UNAVAILABLE", Message: "storage temporarily unavailable"}

// Invalid builds an InvalidInput error with a specific message.
func Invalid(msg string) *Error {
	return InvalidInput.WithMessage(msg)
}

// Storage wraps an unexpected storage error. Errors that already belong to the
// taxonomy are returned unchanged.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return StorageUnavailable.Wrap(err)
}

// KindOf reports the kind of err, defaulting to KindStorageUnavailable for errors
// outside the taxonomy.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorageUnavailable
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	ok := errors.As(err, &ae)
	return ae, ok
}

package lending

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an error for the API boundary. The boundary translates
// kinds to HTTP-equivalent status codes via HTTPStatus.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindInternal
)

// String provides a string representation of ErrorKind for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a typed error carrying a human-readable message and a
// classification. All guard failures in the engine surface as an Error.
type Error struct {
	kind ErrorKind
	msg  string
}

// NewError creates a typed error with the given classification and message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Kind returns the classification of the error.
func (e *Error) Kind() ErrorKind {
	return e.kind
}

var (
	ErrMissingBorrowFields = NewError(KindValidation, "book id and due date are required")
	ErrInvalidDueDate      = NewError(KindValidation, "invalid due date format")
	ErrStatusRequired      = NewError(KindValidation, "status is required for admin updates")
	ErrUnknownStatus       = NewError(KindValidation, "invalid status provided")
	ErrBookIDRequired      = NewError(KindValidation, "book id is required to update")
	ErrMissingBookFields   = NewError(KindValidation, "isbn, title, author, shelf location and total quantity are required")
	ErrNegativeQuantity    = NewError(KindValidation, "total quantity must not be negative")
	ErrMissingUserFields   = NewError(KindValidation, "email and name are required")
	ErrMissingReportPeriod = NewError(KindValidation, "start date and end date are required")
	ErrInvalidReportPeriod = NewError(KindValidation, "invalid date format provided")
	ErrReportPeriodOrder   = NewError(KindValidation, "start date must be before end date")

	ErrBookNotFound   = NewError(KindNotFound, "book not found")
	ErrBorrowNotFound = NewError(KindNotFound, "borrow not found")
	ErrUserNotFound   = NewError(KindNotFound, "user not found")

	ErrNotBorrowOwner = NewError(KindForbidden, "you can only access your own borrows")

	ErrBookInactive          = NewError(KindConflict, "book is not active")
	ErrDuplicateActiveBorrow = NewError(KindConflict, "you already have this book borrowed or pending")
	ErrBookUnavailable       = NewError(KindConflict, "book is no longer available")
	ErrBorrowNotPending      = NewError(KindConflict, "only the book can be changed while the borrow is still pending")
	ErrDeleteNotPending      = NewError(KindConflict, "you can only delete borrows that are still pending")
	ErrInvalidTransition     = NewError(KindConflict, "invalid status transition")
	ErrDuplicateValue        = NewError(KindConflict, "duplicate value")
	ErrQuantityBelowLentOut  = NewError(KindConflict, "total quantity cannot drop below the currently lent out copies")
	ErrRecordInUse           = NewError(KindConflict, "cannot delete record, it is referenced by other records")

	ErrInternal              = NewError(KindInternal, "internal storage error")
	ErrNilDatabaseConnection = NewError(KindInternal, "nil database connection supplied")
	ErrNilClockSupplied      = NewError(KindInternal, "nil clock supplied")
	ErrBuildingQueryFailed   = NewError(KindInternal, "failed to build query")
)

// InvalidTransitionError builds a conflict error naming the current and the
// requested status.
func InvalidTransitionError(from, to BorrowStatus) error {
	return fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidTransition, from, to)
}

// DuplicateFieldError builds a conflict error for a unique constraint
// violation on the given field, without leaking store-internal error codes.
func DuplicateFieldError(field string) error {
	return fmt.Errorf("%w: duplicate %s, please use another value", ErrDuplicateValue, field)
}

// KindOf extracts the classification from an error chain. Errors that carry
// no classification are treated as internal.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind()
	}

	return KindInternal
}

// IsValidation reports whether the error chain carries a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether the error chain carries a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsForbidden reports whether the error chain carries a forbidden error.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsConflict reports whether the error chain carries a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// HTTPStatus maps an error to the HTTP-equivalent status code the API
// boundary should respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a business outcome so callers can map it without string matching.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindPermission   Kind = "permission_denied"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation_failed"
	KindTransient    Kind = "transient"
)

// Reason codes that do not come from the EM-xxxx message catalog.
const (
	CodeMissingPermission   = "missing_permission"
	CodeDraftNotVisible     = "draft_not_visible"
	CodeCancelledNotVisible = "cancelled_not_visible"
	CodeNotEventOrganizer   = "not_event_organizer"
	CodePublishedLocked     = "published_locked"
	CodeUserCannotModify    = "user_cannot_modify"
	CodeAlreadyInState      = "already_in_state"
	CodeStoreUnavailable    = "store_unavailable"
	CodeBusUnavailable      = "bus_unavailable"
	CodeConcurrentUpdate    = "concurrent_update"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind, and by code when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Permission(code, message string) *Error {
	return &Error{Kind: KindPermission, Code: code, Message: message}
}

func InvalidState(code, message string) *Error {
	return &Error{Kind: KindInvalidState, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Transient(code, message string, cause error) *Error {
	return &Error{Kind: KindTransient, Code: code, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

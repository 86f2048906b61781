package service

import (
	"errors"
	"fmt"

	"github.com/chronos-io/chronos-ce/internal/models"
)

// ErrorKind classifies domain failures. The route layer maps kinds to HTTP
// statuses; the engines always return the most specific kind they can.
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION_ERROR"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindTimerAlreadyRunning ErrorKind = "TIMER_ALREADY_RUNNING"
	KindDayAlreadyActive    ErrorKind = "DAY_ALREADY_ACTIVE"
	KindNoActiveTimer       ErrorKind = "NO_ACTIVE_TIMER"
	KindNoActiveDay         ErrorKind = "NO_ACTIVE_DAY"
	KindNotDayModeEntry     ErrorKind = "NOT_DAY_MODE_ENTRY"
	KindNoBlocks            ErrorKind = "NO_BLOCKS"
	KindTemplateEmpty       ErrorKind = "TEMPLATE_EMPTY"
	KindDateHasEntries      ErrorKind = "DATE_HAS_ENTRIES"
	KindBlockOutsideDay     ErrorKind = "BLOCK_OUTSIDE_DAY_BOUNDARIES"
	KindBlocksOverlap       ErrorKind = "BLOCKS_OVERLAP"
	KindInvalidProjectID    ErrorKind = "INVALID_PROJECT_ID"
	KindInvalidCategoryID   ErrorKind = "INVALID_CATEGORY_ID"
	KindTimesheetLocked     ErrorKind = "TIMESHEET_LOCKED"
	KindInvalidInterval     ErrorKind = "INVALID_INTERVAL"
)

// DomainError is the typed failure every engine operation returns. Entry
// carries the existing open entity (TimerAlreadyRunning, DayAlreadyActive) or
// the conflicting sibling block (BlocksOverlap) so callers can act on it.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Field   string
	Entry   *models.TimeEntry
	cause   error
}

func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.cause
}

// KindOf extracts the domain kind from err, or "" when err is not domain.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func domainErr(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

func validationErr(field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Field: field, Message: message}
}

func notFoundErr(what string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: what + " not found"}
}

// forbiddenErr deliberately names only the entity kind, never the other
// owner's data.
func forbiddenErr(what string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: "you do not own this " + what}
}

func wrapDomain(kind ErrorKind, message string, cause error) *DomainError {
	return &DomainError{Kind: kind, Message: message, cause: cause}
}

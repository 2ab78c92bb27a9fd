package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("resource state conflict")

// ErrForbidden indicates the caller may not request the operation through this surface.
var ErrForbidden = errors.New("forbidden")

// ErrInternal is returned when an unexpected failure must not leak details to callers.
var ErrInternal = errors.New("internal error")

// ErrConfiguration indicates that required accounts are missing from a company's chart of accounts.
var ErrConfiguration = errors.New("configuration error")

// ErrUnbalancedEntry indicates that a computed journal entry does not balance.
var ErrUnbalancedEntry = errors.New("journal entry does not balance")

// ErrTransientStore indicates a retryable infrastructure failure (timeout, connection loss).
var ErrTransientStore = errors.New("transient store error")

// ErrPartialCommit indicates that a posting failed part-way through its writes.
var ErrPartialCommit = errors.New("partial commit")

// ErrEntryNumberOverflow indicates the per-company entry number no longer fits its fixed width.
var ErrEntryNumberOverflow = errors.New("entry number overflow")

// AppError carries an HTTP-ish status code alongside the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ConfigurationError lists the account codes a posting needed but the chart did not contain.
type ConfigurationError struct {
	CompanyID    string
	MissingCodes []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("company %s is missing required accounts: %s", e.CompanyID, strings.Join(e.MissingCodes, ", "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// UnbalancedEntryError reports the diverging debit and credit totals.
type UnbalancedEntryError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry does not balance: debits %s, credits %s", e.Debits.String(), e.Credits.String())
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// TransientStoreError wraps a store failure that is safe to retry.
type TransientStoreError struct {
	Op    string
	Cause error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Cause)
}

func (e *TransientStoreError) Unwrap() []error { return []error{ErrTransientStore, e.Cause} }

// NewTransientStoreError wraps cause as retryable.
func NewTransientStoreError(op string, cause error) error {
	return &TransientStoreError{Op: op, Cause: cause}
}

// PartialCommitError is returned when line insertion (or posting) failed after the
// entry header was created. CompensationErr is non-nil when the orphan header could
// not be deleted and is still present in the store.
type PartialCommitError struct {
	EntryID         string
	Cause           error
	CompensationErr error
}

func (e *PartialCommitError) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("partial commit of entry %s: %v; compensating delete failed, orphaned draft entry remains: %v", e.EntryID, e.Cause, e.CompensationErr)
	}
	return fmt.Sprintf("partial commit of entry %s rolled back: %v", e.EntryID, e.Cause)
}

func (e *PartialCommitError) Unwrap() []error { return []error{ErrPartialCommit, e.Cause} }

// Compensated reports whether the orphan header was removed.
func (e *PartialCommitError) Compensated() bool { return e.CompensationErr == nil }

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}

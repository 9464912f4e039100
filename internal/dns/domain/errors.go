package domain

import (
	"errors"
	"fmt"
)

// Directory-level sentinel errors. Directory implementations return these (optionally wrapped)
// and the service layer remaps them into the command error taxonomy below.
var (
	ErrNoSuchEntry = errors.New("no such entry")
	ErrEntryExists = errors.New("entry already exists")
	ErrNoSuchValue = errors.New("no such attribute value")
	ErrValueExists = errors.New("attribute value already exists")
	ErrNotLeaf     = errors.New("entry has children")
)

// Error codes reported by CodedError.Code.
const (
	CodeNotFound          = "NotFound"
	CodeDuplicateEntry    = "DuplicateEntry"
	CodeValidation        = "ValidationError"
	CodeRequirement       = "RequirementError"
	CodeAttrValueNotFound = "AttrValueNotFound"
	CodeEmptyModlist      = "EmptyModlist"
	CodeConflict          = "Conflict"
	CodeSecondaryEffect   = "SecondaryEffect"
)

// CodedError is implemented by every error of the command taxonomy.
type CodedError interface {
	error
	Code() string
}

// NotFoundError reports an absent zone, record or nameserver glue.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return e.Reason }
func (e *NotFoundError) Code() string  { return CodeNotFound }

// DuplicateEntryError reports a create-time collision.
type DuplicateEntryError struct {
	Message string
}

func (e *DuplicateEntryError) Error() string {
	if e.Message == "" {
		return "This entry already exists"
	}
	return e.Message
}
func (e *DuplicateEntryError) Code() string { return CodeDuplicateEntry }

// ValidationError names the offending option and carries a detail message.
type ValidationError struct {
	Name   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid '%s': %s", e.Name, e.Detail)
}
func (e *ValidationError) Code() string { return CodeValidation }

// RequirementError reports a missing option that the request depends on.
type RequirementError struct {
	Name string
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("'%s' is required", e.Name)
}
func (e *RequirementError) Code() string { return CodeRequirement }

// AttrValueNotFoundError reports an attribute value that is not present on the entry.
type AttrValueNotFoundError struct {
	Attr  string
	Value string
}

func (e *AttrValueNotFoundError) Error() string {
	return fmt.Sprintf("%s does not contain '%s'", e.Attr, e.Value)
}
func (e *AttrValueNotFoundError) Code() string { return CodeAttrValueNotFound }

// EmptyModlistError reports a request that would not change anything.
type EmptyModlistError struct{}

func (e *EmptyModlistError) Error() string { return "no modifications to be performed" }
func (e *EmptyModlistError) Code() string  { return CodeEmptyModlist }

// ConflictError reports a write that lost a race against a concurrent modification.
// Callers may retry the whole command.
type ConflictError struct {
	DN  string
	Err error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent modification of %s: %v", e.DN, e.Err)
}
func (e *ConflictError) Code() string  { return CodeConflict }
func (e *ConflictError) Unwrap() error { return e.Err }

// SecondaryEffectError reports a failed follow-up step (reverse PTR creation, glue record,
// serial bump) after the primary write was committed. The primary write is not undone.
type SecondaryEffectError struct {
	Effect string
	Err    error
}

func (e *SecondaryEffectError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Effect, e.Err)
}
func (e *SecondaryEffectError) Code() string  { return CodeSecondaryEffect }
func (e *SecondaryEffectError) Unwrap() error { return e.Err }

// ErrorCode returns the taxonomy code of err, looking through wrapping.
// Errors outside the taxonomy yield "".
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// ErrorName returns the option or attribute name an error is attributed to, if any.
func ErrorName(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Name
	}
	var re *RequirementError
	if errors.As(err, &re) {
		return re.Name
	}
	var ae *AttrValueNotFoundError
	if errors.As(err, &ae) {
		return ae.Attr
	}
	return ""
}

package errors

import (
	"fmt"
)

// TagError is the structured error type for wutag. It carries enough context
// for command-level presentation without re-wrapping at every call site.
type TagError struct {
	// Code is the unique error code (e.g., "ERR_402_DUPLICATE_TAG").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Pattern, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *TagError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TagError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code, enabling
// errors.Is() against sentinel TagErrors.
func (e *TagError) Is(target error) bool {
	if t, ok := target.(*TagError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *TagError) WithDetail(key, value string) *TagError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *TagError) WithSuggestion(suggestion string) *TagError {
	e.Suggestion = suggestion
	return e
}

// Fatal reports whether the error must abort the command before commit.
func (e *TagError) Fatal() bool {
	return e.Severity == SeverityFatal
}

// New creates a TagError with the given code and message. Category and
// severity are derived from the code.
func New(code string, message string, cause error) *TagError {
	return &TagError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a TagError with a formatted message and no cause.
func Newf(code string, format string, args ...any) *TagError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a TagError from an existing error. Returns nil for a nil err.
func Wrap(code string, err error) *TagError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// PatternError creates a pattern-compilation error; always fatal, raised
// before any traversal or mutation begins.
func PatternError(pattern string, cause error) *TagError {
	return New(ErrCodePatternInvalid, fmt.Sprintf("invalid pattern %q", pattern), cause)
}

// CommitError creates a fatal registry-commit error. The previous snapshot
// remains intact on disk.
func CommitError(cause error) *TagError {
	return New(ErrCodeCommitFailed, "failed to commit registry", cause).
		WithSuggestion("the previous registry snapshot is unchanged; check disk space and permissions")
}

// CorruptError creates a fatal registry-deserialization error.
func CorruptError(path string, cause error) *TagError {
	return New(ErrCodeRegistryCorrupt, fmt.Sprintf("registry %s is corrupt", path), cause).
		WithSuggestion("run 'wutag clean-cache' to discard the registry and start over")
}

// UnknownTagError reports a query referencing a nonexistent tag. Non-fatal:
// the tag contributes an empty match set.
func UnknownTagError(name string) *TagError {
	return Newf(ErrCodeUnknownTag, "tag %q does not exist", name)
}

// DuplicateTagError reports an attempt to create a second tag with an
// existing name. The in-memory registry is left unchanged.
func DuplicateTagError(name string) *TagError {
	return Newf(ErrCodeDuplicateTag, "tag %q already exists", name)
}

// DuplicatePathError reports an attempt to register a second entry for an
// existing canonical path.
func DuplicatePathError(path string) *TagError {
	return Newf(ErrCodeDuplicatePath, "path %q is already registered", path)
}

// EncryptionError creates a fatal encryption-layer error; no partial commit
// is made.
func EncryptionError(message string, cause error) *TagError {
	return New(ErrCodeEncryption, message, cause)
}

// IsFatal reports whether err is a TagError that must block the commit.
func IsFatal(err error) bool {
	if te, ok := err.(*TagError); ok {
		return te.Fatal()
	}
	return false
}

// CodeOf returns the code of a TagError, or ErrCodeInternal for other errors.
func CodeOf(err error) string {
	if te, ok := err.(*TagError); ok {
		return te.Code
	}
	return ErrCodeInternal
}

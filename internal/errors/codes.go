// Package errors provides structured error handling for wutag.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: configuration errors
//   - 2XX: IO and registry persistence errors
//   - 3XX: pattern compilation errors
//   - 4XX: validation errors (tags, paths, colors)
//   - 5XX: encryption and internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, traversal, and registry persistence errors.
	CategoryIO Category = "IO"
	// CategoryPattern indicates pattern compilation errors.
	CategoryPattern Category = "PATTERN"
	// CategoryValidation indicates registry invariant violations and bad input.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates encryption failures and unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error; the command must abort
	// before any commit is attempted.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the registry is intact.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation; results may be partial.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeIO              = "ERR_201_IO"
	ErrCodeCommitFailed    = "ERR_202_COMMIT_FAILED"
	ErrCodeRegistryCorrupt = "ERR_203_REGISTRY_CORRUPT"
	ErrCodeRegistryLocked  = "ERR_204_REGISTRY_LOCKED"

	// Pattern errors (300-399)
	ErrCodePatternInvalid = "ERR_301_PATTERN_INVALID"

	// Validation errors (400-499)
	ErrCodeUnknownTag    = "ERR_401_UNKNOWN_TAG"
	ErrCodeDuplicateTag  = "ERR_402_DUPLICATE_TAG"
	ErrCodeDuplicatePath = "ERR_403_DUPLICATE_PATH"
	ErrCodeInvalidColor  = "ERR_404_INVALID_COLOR"
	ErrCodeUnknownFile   = "ERR_405_UNKNOWN_FILE"

	// Internal errors (500-599)
	ErrCodeEncryption = "ERR_501_ENCRYPTION"
	ErrCodeInternal   = "ERR_502_INTERNAL"
)

// categoryFromCode extracts the category from an error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryPattern
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode maps a code to its default severity. Anything that would
// corrupt persisted invariants is fatal and commit-blocking; scope-local
// problems degrade to warnings.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCommitFailed, ErrCodeRegistryCorrupt, ErrCodePatternInvalid,
		ErrCodeEncryption, ErrCodeConfigInvalid, ErrCodeRegistryLocked:
		return SeverityFatal
	case ErrCodeUnknownTag, ErrCodeIO:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Package errors provides structured error handling with localized messages.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Page errors
	CodeElementMissing Code = "ELEMENT_MISSING"
	CodePageUnknown    Code = "PAGE_UNKNOWN"

	// URL errors
	CodeURLMalformed Code = "URL_MALFORMED"
	CodeURLForeign   Code = "URL_FOREIGN_ORIGIN"

	// Transport errors
	CodeFetchFailed      Code = "FETCH_FAILED"
	CodeUnexpectedStatus Code = "UNEXPECTED_STATUS"
	CodeDecodeFailed     Code = "DECODE_FAILED"

	// Form errors
	CodeDateRangeInvalid   Code = "DATE_RANGE_INVALID"
	CodeSalaryRangeInvalid Code = "SALARY_RANGE_INVALID"

	// Preview fixture errors
	CodeFixtureInvalid Code = "FIXTURE_INVALID"
	CodeNotFound       Code = "NOT_FOUND"
	CodeInvalidInput   Code = "INVALID_INPUT"
)

// Transient reports whether the code describes a failure worth retrying by
// the user (network trouble or a server hiccup) rather than bad input.
func (c Code) Transient() bool {
	switch c {
	case CodeFetchFailed, CodeUnexpectedStatus:
		return true
	default:
		return false
	}
}

// CatalogKey returns the message key of the code in the "errors" namespace.
func (c Code) CatalogKey() string {
	return "errors." + string(c)
}

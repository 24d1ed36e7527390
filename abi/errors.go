package abi

import "fmt"

// ErrorCode identifies the machine-readable category of an abi error.
type ErrorCode string

const (
	ERR_PARSE_DOCUMENT   ErrorCode = "ERR_PARSE_DOCUMENT"
	ERR_VALIDATION       ErrorCode = "ERR_VALIDATION"
	ERR_INSUFFICIENT     ErrorCode = "ERR_INSUFFICIENT_DATA"
	ERR_EXPRESSION       ErrorCode = "ERR_EXPRESSION_FAILURE"
	ERR_NO_UNION_MATCH   ErrorCode = "ERR_NO_UNION_MATCH"
	ERR_MULTI_UNION      ErrorCode = "ERR_MULTIPLE_UNION_MATCH"
	ERR_TRAILING_BYTES   ErrorCode = "ERR_TRAILING_BYTES"
	ERR_ARRAY_LENGTH     ErrorCode = "ERR_ARRAY_LENGTH_OUT_OF_RANGE"
	ERR_UNSUPPORTED_PRIM ErrorCode = "ERR_UNSUPPORTED_PRIMITIVE"
)

// ParseError reports that an ABI document failed to parse as YAML or did
// not match the expected document shape.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("parse-error: %s", e.Msg)
}

func parseerr(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports a structural problem with the type registry:
// an unknown type reference, a cycle, or a lookup of a missing type name.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("validation-error: %s", e.Msg)
}

func validationerr(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// DecodeError reports a runtime failure while consuming bytes: truncated
// buffers, failed expressions, ambiguous or unmatched unions, leftover
// bytes, or an out-of-range array length. Details carries the structured
// sub-category payload described in spec §7.
type DecodeError struct {
	Code    ErrorCode
	Msg     string
	Path    string
	Details any
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Msg, e.Path)
}

func decodeerr(path string, code ErrorCode, format string, args ...any) error {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...), Path: path}
}

func decodeerrd(path string, code ErrorCode, details any, format string, args ...any) error {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...), Path: path, Details: details}
}

// InsufficientDataDetails is the Details payload for ERR_INSUFFICIENT_DATA.
type InsufficientDataDetails struct {
	Requested int
	Remaining int
}

// TrailingBytesDetails is the Details payload for ERR_TRAILING_BYTES.
type TrailingBytesDetails struct {
	Expected int
	Consumed int
	Remaining int
}

// UnionAttempt records one variant's outcome during a union/size-discriminated-union decode.
type UnionAttempt struct {
	Variant string
	Err     string
}

// NoUnionMatchDetails is the Details payload for ERR_NO_UNION_MATCH.
type NoUnionMatchDetails struct {
	Attempts []UnionAttempt
}

// MultipleUnionMatchDetails is the Details payload for ERR_MULTIPLE_UNION_MATCH.
type MultipleUnionMatchDetails struct {
	Winners []string
}

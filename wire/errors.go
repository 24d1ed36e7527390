package wire

import "fmt"

// ErrorCode identifies the machine-readable category of a wire error.
type ErrorCode string

const (
	ERR_PARSE            ErrorCode = "WIRE_ERR_PARSE"
	ERR_VERSION_INVALID  ErrorCode = "WIRE_ERR_VERSION_INVALID"
	ERR_FLAGS_INVALID    ErrorCode = "WIRE_ERR_FLAGS_INVALID"
	ERR_ACCOUNT_OVERFLOW ErrorCode = "WIRE_ERR_ACCOUNT_OVERFLOW"
	ERR_TRAILING_BYTES   ErrorCode = "WIRE_ERR_TRAILING_BYTES"
	ERR_STATE_INVALID    ErrorCode = "WIRE_ERR_STATE_INVALID"
	ERR_SIZE_INVALID     ErrorCode = "WIRE_ERR_SIZE_INVALID"
)

// WireError reports a failure to parse or validate a fixed-layout wire
// object: a truncated buffer, an out-of-range field, or a strict-mode
// check (version, flags, account count, trailing bytes) being violated.
type WireError struct {
	Code ErrorCode
	Msg  string
}

func (e *WireError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func wireerr(code ErrorCode, format string, args ...any) error {
	return &WireError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

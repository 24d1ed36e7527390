package thruaddr

import "fmt"

// AddressError reports a malformed or non-matching ta-address/ts-signature
// string.
type AddressError struct {
	Msg string
}

func (e *AddressError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Msg
}

func addrerr(format string, args ...any) error {
	return &AddressError{Msg: fmt.Sprintf(format, args...)}
}

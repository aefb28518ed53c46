package msg

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions a caller can recover from. Invariant
// violations (duplicate enqueue, refcount underflow, unhandled message in
// a typed element) panic instead — they are programmer errors.
var (
	ErrSampleRateUnsupported = errors.New("msg: sample rate unsupported by sink")
	ErrBitDepthUnsupported   = errors.New("msg: bit depth unsupported by sink")
	ErrFormatUnsupported     = errors.New("msg: format unsupported by sink")
)

// assertf panics with a formatted message. Used for invariant violations:
// programmer errors that must abort rather than be handled.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(newAssertion(format, args...))
	}
}

type assertionError struct{ msg string }

func (e *assertionError) Error() string { return e.msg }

func newAssertion(format string, args ...any) error {
	return &assertionError{msg: fmt.Sprintf(format, args...)}
}

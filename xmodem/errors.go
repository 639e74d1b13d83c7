package xmodem

import (
	"errors"
	"fmt"
)

// Error represents an XMODEM session error
type Error struct {
	// Type is the error type
	Type ErrorType

	// Message is a human-readable error message
	Message string

	// Err is the underlying cause, if any
	Err error
}

// ErrorType categorizes session errors
type ErrorType int

const (
	// ErrOpen indicates the channel could not be acquired
	ErrOpen ErrorType = iota

	// ErrIO indicates the channel failed while reading
	ErrIO

	// ErrHeader indicates a block failed the complement check
	ErrHeader

	// ErrChecksum indicates a block failed the checksum check
	ErrChecksum

	// ErrCancelled indicates the session context was cancelled
	ErrCancelled
)

// ErrEndOfStream is reported by a Channel that can no longer deliver bytes.
var ErrEndOfStream = errors.New("xmodem: end of stream")

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xmodem %s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("xmodem %s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (t ErrorType) String() string {
	switch t {
	case ErrOpen:
		return "open error"
	case ErrIO:
		return "I/O error"
	case ErrHeader:
		return "header error"
	case ErrChecksum:
		return "checksum error"
	case ErrCancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}

// NewError creates a new session error
func NewError(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// WrapError creates a new session error with an underlying cause
func WrapError(errType ErrorType, message string, err error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsOpen checks if an error is a channel acquisition failure
func IsOpen(err error) bool {
	return isType(err, ErrOpen)
}

// IsIO checks if an error is a mid-session I/O fault
func IsIO(err error) bool {
	return isType(err, ErrIO)
}

// IsCancelled checks if an error indicates cancellation
func IsCancelled(err error) bool {
	return isType(err, ErrCancelled)
}

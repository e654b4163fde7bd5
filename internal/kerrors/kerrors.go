// Package kerrors implements the worker's error-kind taxonomy:
// Data, Input, Search, Realtime and Internal, each wrapped with
// github.com/pkg/errors so a backtrace survives to the log line.
package kerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure for both logging policy and wire mapping.
type Kind int

const (
	KindData Kind = iota
	KindInput
	KindSearch
	KindRealtime
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindInput:
		return "input"
	case KindSearch:
		return "search"
	case KindRealtime:
		return "realtime"
	default:
		return "internal"
	}
}

// Error is a kerrors-flavored error: a Kind plus the wrapped cause,
// carrying pkg/errors' stack trace via Wrap/WithStack.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Kind, e.cause) }
func (e *Error) Unwrap() error { return e.cause }

// StackTrace exposes the pkg/errors stack, when the wrapped cause
// carries one, so the logger can print it ("internal_error
// ... logged with ... a backtrace when available").
func (e *Error) StackTrace() errors.StackTrace {
	type stackTracer interface{ StackTrace() errors.StackTrace }
	if st, ok := e.cause.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

func new_(kind Kind, cause error) *Error { return &Error{Kind: kind, cause: errors.WithStack(cause)} }

func Data(cause error) *Error     { return new_(KindData, cause) }
func Input(cause error) *Error    { return new_(KindInput, cause) }
func Search(cause error) *Error   { return new_(KindSearch, cause) }
func Realtime(cause error) *Error { return new_(KindRealtime, cause) }
func Internal(cause error) *Error { return new_(KindInternal, cause) }

func Dataf(format string, args ...interface{}) *Error {
	return new_(KindData, fmt.Errorf(format, args...))
}
func Inputf(format string, args ...interface{}) *Error {
	return new_(KindInput, fmt.Errorf(format, args...))
}
func Searchf(format string, args ...interface{}) *Error {
	return new_(KindSearch, fmt.Errorf(format, args...))
}
func Internalf(format string, args ...interface{}) *Error {
	return new_(KindInternal, fmt.Errorf(format, args...))
}

// As reports whether err is (or wraps) a *kerrors.Error, writing it into
// target like errors.As.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

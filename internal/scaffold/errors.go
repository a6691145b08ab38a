package scaffold

import (
	"errors"
	"fmt"
)

// Kind is a stable error code for engine failures.
type Kind string

// Error kinds.
const (
	KindInvalidSpec       Kind = "E_INVALID_SPEC"
	KindPathCreation      Kind = "E_PATH_CREATION"
	KindFileWrite         Kind = "E_FILE_WRITE"
	KindPatchParse        Kind = "E_PATCH_PARSE"
	KindPatchWrite        Kind = "E_PATCH_WRITE"
	KindInstallInvocation Kind = "E_INSTALL_INVOCATION"
	KindInstallProcess    Kind = "E_INSTALL_PROCESS"
)

// Error is the engine's error type. Path is the filesystem path involved,
// if any.
type Error struct {
	Kind   Kind
	Branch string
	Path   string
	Msg    string
	Cause  error
}

// Error returns "CODE: message[: cause]".
func (e *Error) Error() string {
	msg := e.Msg
	if e.Cause != nil {
		msg = msg + ": " + e.Cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, path string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it wraps an *Error.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

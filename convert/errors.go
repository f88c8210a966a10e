package convert

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines conversion error kinds.
type ErrorKind string

const (
	KindConnection    ErrorKind = "connection"
	KindTableRead     ErrorKind = "table_read"
	KindWrite         ErrorKind = "write"
	KindSheetConflict ErrorKind = "sheet_conflict"
	KindCanceled      ErrorKind = "canceled"
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindInternal      ErrorKind = "internal"
	KindNotImpl       ErrorKind = "not_implemented"
)

// ConvertError wraps errors with a kind.
type ConvertError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *ConvertError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}

// NewError creates a new conversion error.
func NewError(kind ErrorKind, msg string, err error) *ConvertError {
	return &ConvertError{Kind: kind, Msg: msg, Err: err}
}

// IsCanceled reports whether err is a cancellation signal rather than a failure.
func IsCanceled(err error) bool {
	return KindFromError(err) == KindCanceled
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindInternal
	msg := err.Error()

	var convErr *ConvertError
	if errors.As(err, &convErr) {
		kind = convErr.Kind
		if convErr.Msg != "" {
			msg = convErr.Msg
		}
	}

	if errors.Is(err, context.Canceled) {
		kind = KindCanceled
	}

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindConnection:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("connection")
	case KindTableRead:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("table_read")
	case KindWrite:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("write")
	case KindSheetConflict:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("sheet_conflict")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindNotImpl:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its conversion error kind. It recognizes
// both ConvertError values and the go-errors values AsGoError produces.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var convErr *ConvertError
	if errors.As(err, &convErr) {
		return convErr.Kind
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		switch kind := ErrorKind(ge.TextCode); kind {
		case KindConnection, KindTableRead, KindWrite, KindSheetConflict,
			KindCanceled, KindValidation, KindNotFound, KindInternal, KindNotImpl:
			return kind
		}
	}

	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}

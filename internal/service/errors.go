package service

import "errors"

type Code string

const (
	CodeValidation      Code = "validation"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeVersionConflict Code = "version_conflict"
	CodeInternal        Code = "internal"
)

type Error struct {
	Code    Code
	Message string
	Err     error

	// CurrentVersion is set on CodeVersionConflict so the caller can
	// re-fetch and retry with the version it lost to.
	CurrentVersion int64
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code Code, msg string, err error) *Error {
	return &Error{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// CurrentVersionOf returns the stored version carried by a version-conflict
// error, or 0 for any other error.
func CurrentVersionOf(err error) int64 {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code == CodeVersionConflict {
		return appErr.CurrentVersion
	}
	return 0
}

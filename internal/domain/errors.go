package domain

import "net/http"

// Error is a reportable failure: Code is the stable taxonomy value sent to
// clients, Status the HTTP status it maps to. Err is the underlying cause and
// is only logged.
type Error struct {
	Code   int
	Msg    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

const (
	CodeReportsNotFound      = 0
	CodeReportNotFound       = 1
	CodeReportAlreadyExists  = 2
	CodeInternalServerError  = 10
	CodeUserNotFound         = 11
	CodePasswordsNotEqual    = 21
	CodeUserAlreadyExists    = 22
	CodeWrongPassword        = 23
	CodeRoleAlreadyExists    = 31
	CodeRoleNotFound         = 32
	CodeRoleNotExist         = 33
	CodeInvalidToken         = 41
	CodeInvalidClientRequest = 42
)

var (
	ErrReportsNotFound      = &Error{Code: CodeReportsNotFound, Msg: "reports not found", Status: http.StatusNotFound}
	ErrReportNotFound       = &Error{Code: CodeReportNotFound, Msg: "report not found", Status: http.StatusNotFound}
	ErrReportAlreadyExists  = &Error{Code: CodeReportAlreadyExists, Msg: "report already exists", Status: http.StatusConflict}
	ErrInternal             = &Error{Code: CodeInternalServerError, Msg: "internal server error", Status: http.StatusInternalServerError}
	ErrUserNotFound         = &Error{Code: CodeUserNotFound, Msg: "user not found", Status: http.StatusNotFound}
	ErrPasswordsNotEqual    = &Error{Code: CodePasswordsNotEqual, Msg: "passwords are not equal", Status: http.StatusBadRequest}
	ErrUserAlreadyExists    = &Error{Code: CodeUserAlreadyExists, Msg: "user already exists", Status: http.StatusConflict}
	ErrWrongPassword        = &Error{Code: CodeWrongPassword, Msg: "wrong password", Status: http.StatusUnauthorized}
	ErrRoleAlreadyExists    = &Error{Code: CodeRoleAlreadyExists, Msg: "role already exists", Status: http.StatusConflict}
	ErrRoleNotFound         = &Error{Code: CodeRoleNotFound, Msg: "role not found", Status: http.StatusNotFound}
	ErrRoleNotExist         = &Error{Code: CodeRoleNotExist, Msg: "role does not exist", Status: http.StatusNotFound}
	ErrInvalidToken         = &Error{Code: CodeInvalidToken, Msg: "invalid token", Status: http.StatusUnauthorized}
	ErrInvalidClientRequest = &Error{Code: CodeInvalidClientRequest, Msg: "invalid client request", Status: http.StatusBadRequest}
)

// Internal wraps an unexpected failure as InternalServerError. Domain errors
// pass through untouched.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	if de, ok := err.(*Error); ok {
		return de
	}
	return &Error{Code: CodeInternalServerError, Msg: ErrInternal.Msg, Status: ErrInternal.Status, Err: err}
}

// Wrap attaches a cause to a sentinel, keeping its code and message.
func Wrap(sentinel *Error, err error) error {
	return &Error{Code: sentinel.Code, Msg: sentinel.Msg, Status: sentinel.Status, Err: err}
}

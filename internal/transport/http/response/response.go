package response

import (
	"errors"
	"net/http"
	"reflect"

	"reportdesk/internal/domain"
)

// Resp is the envelope every endpoint answers with. On success ErrorMessage
// and ErrorCode are null; Count is set for collection payloads.
type Resp struct {
	Data         any     `json:"data"`
	ErrorMessage *string `json:"errorMessage"`
	ErrorCode    *int    `json:"errorCode"`
	Count        *int    `json:"count,omitempty"`
}

func (r Resp) IsSuccess() bool { return r.ErrorCode == nil }

func OK(data any) Resp {
	r := Resp{Data: data}
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice {
		n := v.Len()
		r.Count = &n
	}
	return r
}

// Error builds a failure envelope; an empty msg falls back to CodeMsgMap.
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return Resp{ErrorMessage: &msg, ErrorCode: &code}
}

// FromError maps err to an HTTP status and envelope. Only domain errors
// expose their message; anything else is reported as InternalServerError.
func FromError(err error) (int, Resp) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := de.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		return status, Error(de.Code, de.Msg)
	}
	return http.StatusInternalServerError, Error(domain.CodeInternalServerError, domain.ErrInternal.Msg)
}

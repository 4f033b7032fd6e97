package response

import "net/http"

// Transport-level codes for failures that never reach a service (binding,
// authentication, throttling). Domain failures carry domain.Error codes.
const (
	CodeBadRequest      = http.StatusBadRequest
	CodeUnauthorized    = http.StatusUnauthorized
	CodeForbidden       = http.StatusForbidden
	CodeNotFound        = http.StatusNotFound
	CodeTooLarge        = http.StatusRequestEntityTooLarge
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeServerError     = http.StatusInternalServerError
	CodeUnavailable     = http.StatusServiceUnavailable
	CodeTimeout         = http.StatusGatewayTimeout
)

var CodeMsgMap = map[int]string{
	CodeBadRequest:      "Bad Request",
	CodeUnauthorized:    "Unauthorized",
	CodeForbidden:       "Forbidden",
	CodeNotFound:        "Not Found",
	CodeTooLarge:        "Request Entity Too Large",
	CodeTooManyRequests: "Too Many Requests",
	CodeServerError:     "Internal Server Error",
	CodeUnavailable:     "Service Unavailable",
	CodeTimeout:         "Timeout",
}

package client

import (
	"errors"
	"fmt"
)

// ErrOffline is returned when no network path to the backend is reachable.
// No request is sent in that case.
var ErrOffline = errors.New("network unreachable")

const (
	TypeInvalidData = "Invalid Data"
	TypeInternal    = "Internal Error"
)

// APIError is a structured remote failure: a decode error, an unexpected
// status code, or a transport failure with no response at all (Code 0).
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
	Request string `json:"request"`

	Err error `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s [%s]", e.Type, e.Code, e.Message, e.Request)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

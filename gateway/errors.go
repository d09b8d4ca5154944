package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus marks a non-2xx backend response.
	ErrStatus = errors.New("unexpected backend status")
	// ErrMalformedBody marks a response body that is not valid JSON.
	ErrMalformedBody = errors.New("malformed response body")
)

// TransportError is the single failure kind returned by the gateway. Network
// failures, error statuses and undecodable bodies all end up here.
type TransportError struct {
	Op         string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s (%s): status %d: %v", e.Op, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s (%s): %v", e.Op, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

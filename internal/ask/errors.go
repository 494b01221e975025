package ask

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream means the answering service failed; the request is not retried.
	ErrUpstream = errors.New("upstream answer failure")
)

package contract

import "errors"

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrMalformedResponse  = errors.New("malformed backend response")
	ErrValidation         = errors.New("validation failed")
)

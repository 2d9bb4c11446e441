package domain

import "errors"

var (
	// ErrInvalidArgument marks malformed engine or acquisition inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDataUnavailable marks acquisition failures: transport, unknown symbol, bad payload.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrRenderFailure marks visualization failures. Computed data is still valid.
	ErrRenderFailure = errors.New("render failure")
)

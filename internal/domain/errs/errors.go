package errs

import "errors"

// Domain errors shared across the chat pipeline, the registry and the stores.
var (
	// ErrConfigNotFound means the requested model id is not registered, or nothing is registered at all.
	ErrConfigNotFound = errors.New("model config not found")

	// ErrMissingCredential means a provider resolved but has no usable api key.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnsupportedProvider means the provider tag is outside the known set.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrNotImplemented means the provider is known but has no backend yet.
	ErrNotImplemented = errors.New("not implemented")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

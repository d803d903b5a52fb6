package provider

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrProvider is the parent of every completion provider failure.
	ErrProvider = goerr.New("provider error")

	// ErrNotConfigured means no completion endpoint is configured.
	ErrNotConfigured = goerr.Wrap(ErrProvider, "completion endpoint is not configured")

	// ErrKeyMissing means the endpoint requires an API key and none is set.
	ErrKeyMissing = goerr.Wrap(ErrProvider, "completion endpoint requires an API key")

	// ErrRequestFailed means the call to the endpoint did not succeed.
	ErrRequestFailed = goerr.Wrap(ErrProvider, "completion request failed")
)

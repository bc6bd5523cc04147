package bridge

import "errors"

// Domain-specific errors for the bridge lifecycle.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDiscoveryExhausted is returned by Setup when every discovery
	// attempt failed. The caller treats this as fatal.
	ErrDiscoveryExhausted = errors.New("bridge: discovery retries exhausted")

	// ErrNotReady is returned by Run when Setup has not completed.
	ErrNotReady = errors.New("bridge: setup has not completed")
)

package transport

import "fmt"

// ErrPortInUse is returned by Start when the OS refuses the bind because the
// port is already held by another process (spec §4.1, §7).
type ErrPortInUse struct{ Port int }

func (e *ErrPortInUse) Error() string { return fmt.Sprintf("port %d is already in use", e.Port) }

// ErrBindFailure is returned by Start for any other listen failure.
type ErrBindFailure struct{ Cause error }

func (e *ErrBindFailure) Error() string { return fmt.Sprintf("failed to bind: %v", e.Cause) }
func (e *ErrBindFailure) Unwrap() error { return e.Cause }

// ErrDisconnected is returned by SendCmd when no peer is connected, and is
// the rejection reason used to drain PendingRequest entries on peer close
// or Stop (spec §4.1, invariant 3 in spec §8).
type ErrDisconnected struct{}

func (e *ErrDisconnected) Error() string { return "disconnected" }

// ErrTimeout is returned by SendCmd when the peer does not respond within
// the per-request timeout (spec §4.1, invariant 4 in spec §8).
type ErrTimeout struct{ Method string }

func (e *ErrTimeout) Error() string { return fmt.Sprintf("timeout waiting for %q", e.Method) }

// ErrPeerError wraps an error payload returned by the peer for a given
// sendCmd (spec §4.1).
type ErrPeerError struct{ Message string }

func (e *ErrPeerError) Error() string { return e.Message }

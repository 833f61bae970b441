package pulse

import "errors"

var (
	// ErrAcquisitionTimeout marks a single channel-acquisition attempt that did
	// not yield an open channel within the configured connection timeout. It is
	// recovered locally by the reconnect policy until attempts run out.
	ErrAcquisitionTimeout = errors.New("channel acquisition timed out")

	// ErrAcquisitionExhausted is terminal: every reconnect attempt failed.
	ErrAcquisitionExhausted = errors.New("channel acquisition failed")

	// ErrMissedHeartbeat is terminal: no acknowledgment arrived within the
	// heartbeat interval.
	ErrMissedHeartbeat = errors.New("missed heartbeat")

	// ErrStreamClosed is terminal: the channel ended or errored outside of the
	// session's own teardown.
	ErrStreamClosed = errors.New("stream closed unexpectedly")

	// ErrEndpointClosed is terminal: the owning multiplex endpoint went away.
	ErrEndpointClosed = errors.New("endpoint closed")

	// ErrCancelled is terminal: the caller cancelled the session.
	ErrCancelled = errors.New("cancelled by caller")
)

package progress

import (
	"errors"
	"fmt"
)

// ErrBulkRetryInFlight is returned when a retry-all is requested while a
// previous retry-all for the same job has not finished
var ErrBulkRetryInFlight = errors.New("a retry of all failed documents is already in progress")

// ErrChannelClosed is returned by operations on a closed channel
var ErrChannelClosed = errors.New("progress channel is closed")

// TransportError wraps a network or protocol failure on the channel or the
// control API. Always recoverable: channels keep reconnecting and commands
// can be reissued.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError reports a control command issued in a state where
// it is not legal. Rejected locally, before any network call.
type InvalidTransitionError struct {
	Command CommandKind
	From    JobStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a job in status %q", e.Command, e.From)
}

// CommandRejectedError reports that the server refused a control command.
// The optimistic local state has already been rolled back when this is
// returned.
type CommandRejectedError struct {
	Command    CommandKind
	StatusCode int
	Message    string
}

func (e *CommandRejectedError) Error() string {
	return fmt.Sprintf("server rejected %s (HTTP %d): %s", e.Command, e.StatusCode, e.Message)
}

package frontier

import "errors"

var (
	// ErrDone is returned by Next when the queue is empty and nothing is
	// in flight, so no more work can appear.
	ErrDone = errors.New("frontier exhausted")

	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("frontier closed")
)

package computer

import "errors"

// Sentinel errors for computer-use dispatch and capture.
var (
	// ErrInvalidAction indicates an unrecognized action kind.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidArgument indicates the text/coordinate payload violates the
	// per-action contract.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrGeometryRequired indicates an action was attempted before display
	// geometry was established via get_screen_info.
	ErrGeometryRequired = errors.New("screen geometry not established; run get_screen_info first")

	// ErrGeometryUnavailable indicates the geometry bootstrap query failed or
	// returned unparsable output.
	ErrGeometryUnavailable = errors.New("screen geometry unavailable")

	// ErrOutOfBounds indicates an API-space coordinate exceeds the device bounds.
	ErrOutOfBounds = errors.New("coordinates out of bounds")

	// ErrCaptureFailed indicates the screenshot pipeline did not produce a file
	// on the host.
	ErrCaptureFailed = errors.New("screenshot capture failed")
)

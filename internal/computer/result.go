package computer

import "errors"

// Result is the outcome of a single dispatched action.
//
// Results are value objects: every dispatch builds fresh ones and callers
// never mutate them. A Result is considered truthy when at least one field
// is non-empty (see IsZero).
type Result struct {
	// Output is the sandbox command's stdout, or synthesized action output.
	Output string

	// Error is the sandbox command's stderr. Command stderr is surfaced here
	// rather than raised, so the caller sees partial failures.
	Error string

	// ImageBase64 is a base64-encoded PNG screenshot, when one was taken.
	ImageBase64 string

	// System carries out-of-band notes for the caller.
	System string
}

// IsZero reports whether every field of the result is empty.
func (r Result) IsZero() bool {
	return r.Output == "" && r.Error == "" && r.ImageBase64 == "" && r.System == ""
}

// Merge combines two results. Text fields concatenate left-to-right, which
// makes Merge associative. At most one side may carry an image: a dispatched
// action attaches at most one screenshot, so two present images indicate a
// sequencing bug and Merge refuses to pick one.
func Merge(a, b Result) (Result, error) {
	if a.ImageBase64 != "" && b.ImageBase64 != "" {
		return Result{}, errors.New("cannot merge results: both carry an image")
	}
	image := a.ImageBase64
	if image == "" {
		image = b.ImageBase64
	}
	return Result{
		Output:      a.Output + b.Output,
		Error:       a.Error + b.Error,
		ImageBase64: image,
		System:      a.System + b.System,
	}, nil
}

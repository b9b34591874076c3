package dispatch

import "github.com/x-research-team/dispatch-framework/pipeline/result"

// Catalog of failures produced by the pipeline itself rather than by a
// handler. Both indicate contract violations, not domain conditions.
var (
	// ErrHandlerMissing is returned when a request reaches a chain that has
	// no registered handler. This is a programming error surfaced as a
	// diagnostic failure instead of a silent no-op.
	ErrHandlerMissing = result.Define("Pipeline.HandlerMissing")

	// ErrUnexpected wraps a panic that escaped the chain. The recovered
	// message travels as the single opaque argument. This conversion happens
	// exactly once, at the dispatcher boundary.
	ErrUnexpected = result.Define("Pipeline.Unexpected")
)

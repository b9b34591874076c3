// Package dispatch implements the in-process request pipeline: typed command
// and query contracts, single-purpose handlers, an ordered middleware chain
// composed once per request type, and the process-wide registry and
// dispatcher that route requests through the compiled chain.
package dispatch

import (
	"context"

	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Kind distinguishes state-mutating commands from read-only queries.
type Kind int

const (
	// KindCommand marks a request that is expected to mutate state.
	KindCommand Kind = iota + 1
	// KindQuery marks a request that only reads state.
	KindQuery
)

// String returns the diagnostic name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Request is the marker interface for a dispatchable request, parameterized
// by its result payload type R. Requests are immutable value objects
// constructed fresh per call. DisplayName is used for diagnostics only and
// never for routing; routing is by the concrete request type.
type Request[R any] interface {
	// DisplayName returns a human-readable name for logs and notifications.
	DisplayName() string

	// RequestKind reports whether the request is a command or a query.
	RequestKind() Kind
}

// Command is an embeddable marker that tags a request type as a command.
type Command struct{}

// RequestKind implements Request.
func (Command) RequestKind() Kind { return KindCommand }

// Query is an embeddable marker that tags a request type as a query.
type Query struct{}

// RequestKind implements Request.
func (Query) RequestKind() Kind { return KindQuery }

// Handler is the single-purpose unit mapping one request type to one result
// type. Handlers report every anticipated failure through the Result; a
// panic is a last resort and is converted at the dispatcher boundary.
type Handler[Q Request[R], R any] func(ctx context.Context, req Q) result.Result[R]

// Metadatable is implemented by requests that carry propagation metadata,
// for example an extracted trace context.
type Metadatable interface {
	Metadata() map[string]string
}

package guard

import (
	"context"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Document is the minimal view of the active aggregate the document guards
// need. The aggregate's internals are a collaborator concern.
type Document interface {
	// Writable reports whether the document accepts mutations.
	Writable() bool
}

// Repository yields the currently active document, if any.
type Repository interface {
	// Active returns the active document and true, or false when no
	// document is open.
	Active(ctx context.Context) (Document, bool)
}

// documentMiddleware enforces the open/writable document guards declared for
// the request type.
type documentMiddleware[Q dispatch.Request[R], R any] struct {
	resolver *Resolver
	docs     Repository
}

// NewDocumentMiddleware creates the document guard middleware. The guard set
// for Q is resolved once, when the chain is composed, so guards must be
// attached before the dispatcher is built. A request type without document
// guards composes to the unchanged inner stage.
func NewDocumentMiddleware[Q dispatch.Request[R], R any](resolver *Resolver, docs Repository) dispatch.Middleware[Q, R] {
	return &documentMiddleware[Q, R]{
		resolver: resolver,
		docs:     docs,
	}
}

// Wrap resolves the declared guards and wraps the next stage only when a
// document guard applies.
func (m *documentMiddleware[Q, R]) Wrap(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
	set := Resolve[Q](m.resolver)
	requireWritable := set.Has(WritableDocument)
	if !set.Has(OpenDocument) && !requireWritable {
		return next
	}
	return &documentProvider[Q, R]{
		next:            next,
		docs:            m.docs,
		requireWritable: requireWritable,
	}
}

// documentProvider is the chain stage produced by documentMiddleware.
type documentProvider[Q dispatch.Request[R], R any] struct {
	next            dispatch.Provider[Q, R]
	docs            Repository
	requireWritable bool
}

// Dispatch verifies the document precondition and either short-circuits with
// the guard's catalog error or delegates inward.
func (p *documentProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	doc, ok := p.docs.Active(ctx)
	if !ok {
		return result.Err[R](ErrNoActiveDocument.New())
	}
	if p.requireWritable && !doc.Writable() {
		return result.Err[R](ErrDocumentProtected.New())
	}
	return p.next.Dispatch(ctx, req)
}

// Register delegates to the next stage.
func (p *documentProvider[Q, R]) Register(handler dispatch.Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *documentProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

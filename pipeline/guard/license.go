package guard

import (
	"context"

	"github.com/x-research-team/dispatch-framework/pipeline/dispatch"
	"github.com/x-research-team/dispatch-framework/pipeline/result"
)

// Licensor reports whether the current license grants an entitlement.
type Licensor interface {
	Entitled(ctx context.Context, entitlement string) bool
}

// entitlementMiddleware enforces the entitlement guards declared for the
// request type.
type entitlementMiddleware[Q dispatch.Request[R], R any] struct {
	resolver *Resolver
	licensor Licensor
}

// NewEntitlementMiddleware creates the licensing guard middleware. Like the
// document guard, the declared entitlements are resolved once at composition
// time; a request type without entitlement guards composes to the unchanged
// inner stage.
func NewEntitlementMiddleware[Q dispatch.Request[R], R any](resolver *Resolver, licensor Licensor) dispatch.Middleware[Q, R] {
	return &entitlementMiddleware[Q, R]{
		resolver: resolver,
		licensor: licensor,
	}
}

// Wrap resolves the declared entitlements and wraps the next stage only when
// at least one applies.
func (m *entitlementMiddleware[Q, R]) Wrap(next dispatch.Provider[Q, R]) dispatch.Provider[Q, R] {
	entitlements := Resolve[Q](m.resolver).Payloads(Entitlement)
	if len(entitlements) == 0 {
		return next
	}
	return &entitlementProvider[Q, R]{
		next:         next,
		licensor:     m.licensor,
		entitlements: entitlements,
	}
}

// entitlementProvider is the chain stage produced by entitlementMiddleware.
type entitlementProvider[Q dispatch.Request[R], R any] struct {
	next         dispatch.Provider[Q, R]
	licensor     Licensor
	entitlements []string
}

// Dispatch checks every declared entitlement in declaration order and
// short-circuits on the first one the license lacks.
func (p *entitlementProvider[Q, R]) Dispatch(ctx context.Context, req Q) result.Result[R] {
	for _, entitlement := range p.entitlements {
		if !p.licensor.Entitled(ctx, entitlement) {
			return result.Err[R](ErrEntitlementMissing.New(entitlement))
		}
	}
	return p.next.Dispatch(ctx, req)
}

// Register delegates to the next stage.
func (p *entitlementProvider[Q, R]) Register(handler dispatch.Handler[Q, R]) error {
	return p.next.Register(handler)
}

// Shutdown delegates to the next stage.
func (p *entitlementProvider[Q, R]) Shutdown(ctx context.Context) error {
	return p.next.Shutdown(ctx)
}

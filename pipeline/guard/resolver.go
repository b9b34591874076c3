package guard

import (
	"fmt"
	"sync"

	"github.com/goccy/go-reflect"
)

// Resolver is the registration-time table mapping a request type to its
// declared guard set. It replaces runtime introspection of handler
// declarations: the association is built once, before any request of that
// type is dispatched, and only read afterwards.
type Resolver struct {
	table map[reflect.Type]Set
	mu    sync.RWMutex
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		table: make(map[reflect.Type]Set),
	}
}

// Attach declares the guards for the request type Q. Attaching twice for the
// same type is a registration error and fails fast. Declared at package
// level because Go methods cannot introduce new type parameters.
func Attach[Q any](r *Resolver, decls ...Declaration) error {
	key := typeKey[Q]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.table[key]; exists {
		return fmt.Errorf("guards for request '%s' are already declared", key)
	}

	r.table[key] = NewSet(decls...)
	return nil
}

// Resolve returns the guard set declared for the request type Q, or the
// empty set when nothing was declared.
func Resolve[Q any](r *Resolver) Set {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.table[typeKey[Q]()]
}

// typeKey returns the reflect key for the request type Q.
func typeKey[Q any]() reflect.Type {
	return reflect.TypeOf((*Q)(nil)).Elem()
}

// Package guard implements declarative handler preconditions. A guard is a
// named marker attached to a request type at registration, separate from the
// handler body; guard-checking middlewares resolve the declared set by the
// request's static type and short-circuit the chain with a catalog error
// when a precondition does not hold. A request with no declarations passes
// every guard check unchanged.
package guard

// Marker names one precondition class.
type Marker string

const (
	// OpenDocument requires an active document when the handler runs.
	OpenDocument Marker = "document.open"
	// WritableDocument requires an active document that is not protected.
	// It implies OpenDocument.
	WritableDocument Marker = "document.writable"
	// Entitlement requires the license entitlement named by the payload.
	Entitlement Marker = "license.entitlement"
)

// Declaration is one guard attached to a request type: a marker with an
// optional payload (for example an entitlement identifier). Declarations are
// immutable values.
type Declaration struct {
	marker  Marker
	payload string
}

// Marker returns the precondition class of the declaration.
func (d Declaration) Marker() Marker {
	return d.marker
}

// Payload returns the declaration's payload, empty for payload-free markers.
func (d Declaration) Payload() string {
	return d.payload
}

// RequiresOpenDocument declares that the handler needs an active document.
func RequiresOpenDocument() Declaration {
	return Declaration{marker: OpenDocument}
}

// RequiresWritableDocument declares that the handler needs an active,
// unprotected document.
func RequiresWritableDocument() Declaration {
	return Declaration{marker: WritableDocument}
}

// RequiresEntitlement declares that the handler needs the given license
// entitlement.
func RequiresEntitlement(id string) Declaration {
	return Declaration{marker: Entitlement, payload: id}
}

// Set is the collection of guards declared for one request type. The zero
// value is the empty set, which every check treats as "does not apply".
type Set struct {
	decls []Declaration
}

// NewSet builds a set from declarations.
func NewSet(decls ...Declaration) Set {
	if len(decls) == 0 {
		return Set{}
	}
	return Set{decls: append(make([]Declaration, 0, len(decls)), decls...)}
}

// Empty reports whether no guards are declared.
func (s Set) Empty() bool {
	return len(s.decls) == 0
}

// Has reports whether any declaration carries the marker.
func (s Set) Has(m Marker) bool {
	for _, d := range s.decls {
		if d.marker == m {
			return true
		}
	}
	return false
}

// Payloads returns the payloads of every declaration with the marker, in
// declaration order.
func (s Set) Payloads(m Marker) []string {
	var payloads []string
	for _, d := range s.decls {
		if d.marker == m {
			payloads = append(payloads, d.payload)
		}
	}
	return payloads
}

// Declarations returns a copy of the declarations in the set.
func (s Set) Declarations() []Declaration {
	if len(s.decls) == 0 {
		return nil
	}
	return append(make([]Declaration, 0, len(s.decls)), s.decls...)
}

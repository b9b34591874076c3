package guard

import "github.com/x-research-team/dispatch-framework/pipeline/result"

// Catalog of guard-violation failures. A guard middleware substitutes one of
// these and skips the inner stages entirely; it never invokes the handler.
var (
	// ErrNoActiveDocument is returned when a handler requires an open
	// document and none is active.
	ErrNoActiveDocument = result.Define("Document.NoActiveDocument")

	// ErrDocumentProtected is returned when a handler requires a writable
	// document and the active one is protected.
	ErrDocumentProtected = result.Define("Document.Protected")

	// ErrEntitlementMissing is returned when the license lacks a declared
	// entitlement. The entitlement identifier travels as the argument.
	ErrEntitlementMissing = result.Define("License.EntitlementMissing")
)

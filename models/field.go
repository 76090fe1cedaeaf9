package models

// FieldStatus tracks how far a single enrichable field has progressed through
// the external lookup pipeline. The zero value means the field has never been
// attempted, so cache documents written by older versions (or hand-edited ones
// with missing keys) decode to "not yet attempted" rather than erroring.
type FieldStatus string

const (
	FieldUnresolved FieldStatus = ""
	FieldResolved   FieldStatus = "resolved"
	FieldFailed     FieldStatus = "failed"
)

// Field couples an enrichable value with its resolution state. It replaces
// the sentinel-string comparisons the sources themselves use: a Failed field
// renders as the documented "not found" sentinel at the export boundary, but
// internal logic only ever inspects Status.
type Field[T any] struct {
	Status FieldStatus `json:"status,omitempty"`
	Value  T           `json:"value,omitempty"`
}

// Resolve records a successful lookup result.
func (f *Field[T]) Resolve(value T) {
	f.Status = FieldResolved
	f.Value = value
}

// Fail marks the field as attempted with no acceptable result.
func (f *Field[T]) Fail() {
	var zero T
	f.Status = FieldFailed
	f.Value = zero
}

// IsResolved reports whether the field holds a real looked-up value.
func (f *Field[T]) IsResolved() bool {
	return f.Status == FieldResolved
}

// IsFailed reports whether a lookup was attempted and conclusively failed.
func (f *Field[T]) IsFailed() bool {
	return f.Status == FieldFailed
}

// NeedsLookup reports whether the resolver should spend an external call on
// this field. Fields with a retryable failure policy re-attempt failed
// lookups on later runs; terminal fields never do.
func (f *Field[T]) NeedsLookup(retryFailed bool) bool {
	switch f.Status {
	case FieldResolved:
		return false
	case FieldFailed:
		return retryFailed
	default:
		return true
	}
}

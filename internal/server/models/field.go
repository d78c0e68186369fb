package models

// Field carries the tri-state semantics of a partial update: a field can be
// omitted (left untouched), set to a value, or explicitly cleared (unset in
// the record store). Collapsing "omitted" and "cleared" is a correctness
// bug, so the two are distinct constructors.
type Field[T any] struct {
	present bool
	clear   bool
	value   T
}

// Set returns a field that assigns v.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Clear returns a field that unsets the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{present: true, clear: true}
}

// Omitted reports whether the field should be left untouched.
func (f Field[T]) Omitted() bool { return !f.present }

// Cleared reports whether the field should be unset.
func (f Field[T]) Cleared() bool { return f.present && f.clear }

// Value returns the assigned value and whether one was assigned.
func (f Field[T]) Value() (T, bool) {
	if !f.present || f.clear {
		var zero T
		return zero, false
	}
	return f.value, true
}

package model

// Opt marks an attribute as present in a sparse Action. A present
// attribute may still hold a nil value, e.g. an assignee that was removed.
type Opt[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

func (o Opt[T]) Get() (T, bool) {
	return o.Value, o.Set
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

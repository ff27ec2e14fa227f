package util

// Ptr returns a pointer to a copy of v. Optional config fields use it to
// tell "unset" apart from the zero value.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value of T when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Default stores def in *p when *p holds the zero value.
func Default[T comparable](p *T, def T) {
	var zero T
	if *p == zero {
		*p = def
	}
}

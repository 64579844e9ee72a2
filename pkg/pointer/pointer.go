// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer helps with the optional profile fields, which are modelled as
pointers so that "absent" and "empty" stay distinguishable.
*/
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value of T when p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

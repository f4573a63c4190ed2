package service

import "time"

// Overlap reports whether the half-open windows [s1, e1) and [s2, e2)
// intersect. Touching endpoints (e1 == s2 or e2 == s1) are not an
// overlap, so an event ending exactly when another starts never
// conflicts. Callers guarantee start < end for both windows.
//
// Every overlap decision in the system goes through this predicate.
func Overlap(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

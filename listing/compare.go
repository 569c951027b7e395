// Package listing holds the filter and sort rules behind the list pages and
// the dashboard panels.
package listing

import (
	"slices"
	"time"
)

// Comparator returns a negative number when a sorts before b, positive when
// after and zero when the key does not distinguish them.
type Comparator[T any] func(a, b T) int

// By composes comparators into one key: later comparators only break ties
// left by earlier ones.
func By[T any](keys ...Comparator[T]) Comparator[T] {
	return func(a, b T) int {
		for _, key := range keys {
			if c := key(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// Sort orders items in place, keeping the input order of equal items.
func (c Comparator[T]) Sort(items []T) {
	slices.SortStableFunc(items, c)
}

// Ascending compares ints from smallest to largest.
func Ascending[T any](key func(T) int) Comparator[T] {
	return func(a, b T) int { return key(a) - key(b) }
}

// TimeAsc orders by time, earliest first, nil last.
func TimeAsc[T any](key func(T) *time.Time) Comparator[T] {
	return func(a, b T) int { return compareTimes(key(a), key(b), false) }
}

// TimeDesc orders by time, latest first, nil last.
func TimeDesc[T any](key func(T) *time.Time) Comparator[T] {
	return func(a, b T) int { return compareTimes(key(a), key(b), true) }
}

func compareTimes(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := a.Compare(*b)
	if desc {
		return -c
	}
	return c
}

// Package serial generates the human-readable sequence IDs used across the
// system: a fixed prefix followed by a 4-digit zero-padded number, e.g.
// PRES0004 or pay0003. Allocation picks the smallest unused positive integer
// in the scope, so a number freed by deletion is reused before the series
// grows.
package serial

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const padWidth = 4

// Format renders n as prefix + zero-padded number. Numbers past 9999 simply
// widen; the pad is a floor, not a ceiling.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, padWidth, n)
}

// Parse extracts the numeric part of an ID carrying the given prefix.
// Returns false for IDs with a different prefix, empty digits, or digits
// that do not parse; callers treat those as absent.
func Parse(id, prefix string) (int, bool) {
	if !strings.HasPrefix(id, prefix) {
		return 0, false
	}
	digits := strings.TrimPrefix(id, prefix)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Next computes the lowest positive integer not present among the existing
// IDs and returns it formatted with the prefix. Malformed entries are
// ignored. The scan is not atomic: two callers reading the same snapshot can
// compute the same ID, and the unique index at persist time is what turns
// that race into a retryable conflict.
func Next(existing []string, prefix string) string {
	nums := make([]int, 0, len(existing))
	for _, id := range existing {
		if n, ok := Parse(id, prefix); ok {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)

	candidate := 1
	for _, n := range nums {
		if candidate < n {
			break
		}
		if candidate == n {
			candidate++
		}
	}
	return Format(prefix, candidate)
}

// CounterStore reserves contiguous blocks from a durable atomic counter.
// Bulk import uses this instead of the scan above: reserving up-front avoids
// rescanning per row and cannot hand out the same number twice.
type CounterStore interface {
	// Reserve atomically advances the named counter by count and returns the
	// first number of the reserved block.
	Reserve(ctx context.Context, name string, count int) (int, error)
}

// Package mongodb implements the domain repository interfaces on top of
// the official MongoDB driver. All repositories share one query timeout
// taken from configuration so a slow collection cannot stall a request
// indefinitely.
package mongodb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fuzzyPattern builds the loose dropdown-matching regex: the characters
// of the query joined by ".*", so "amx" matches "Amoxicillin". Regex
// metacharacters in the input are escaped first.
func fuzzyPattern(q string) primitive.Regex {
	parts := make([]string, 0, len(q))
	for _, r := range strings.TrimSpace(q) {
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	return primitive.Regex{Pattern: strings.Join(parts, ".*"), Options: "i"}
}

// substringPattern builds a case-insensitive substring match for list
// search boxes.
func substringPattern(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(q)), Options: "i"}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

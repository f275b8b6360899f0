// Package models holds rate limiting results and bucket keys.
package models

import (
	"strings"
	"time"

	"namereg/pkg/domain"
)

// Result is the outcome of one bucket check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is how long a denied caller should wait, rounded up to seconds.
	RetryAfter int
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

const keyPrefix = "namereg:ratelimit:"

// AccountKey is the bucket of one authenticated account on one route class.
func AccountKey(account domain.Account, class string) string {
	return keyPrefix + "account:" + account.String() + ":" + SanitizeKeySegment(class)
}

// SanitizeKeySegment escapes the key delimiter so caller-controlled segments
// cannot address neighbouring buckets.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds, minimum one.
func RetryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

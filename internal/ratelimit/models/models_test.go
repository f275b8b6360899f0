package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"namereg/pkg/domain"
)

func TestAccountKey(t *testing.T) {
	a := domain.MustParseAccount("0x00000000000000000000000000000000000000a1")
	assert.Equal(t, "namereg:ratelimit:account:0x00000000000000000000000000000000000000a1:write", AccountKey(a, "write"))
	assert.Equal(t, "namereg:ratelimit:account:0x00000000000000000000000000000000000000a1:a_b", AccountKey(a, "a:b"))
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, RetryAfterSeconds(now, now))
	assert.Equal(t, 1, RetryAfterSeconds(now, now.Add(200*time.Millisecond)))
	assert.Equal(t, 2, RetryAfterSeconds(now, now.Add(1500*time.Millisecond)))
	assert.Equal(t, 60, RetryAfterSeconds(now, now.Add(time.Minute)))
}

package bucketing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventBucketDeterministicAndInRange(t *testing.T) {
	m := NewManager(16)

	first := m.EventBucket("event-123")
	assert.Equal(t, first, m.EventBucket("event-123"))
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 16)
}

func TestBucketsSpread(t *testing.T) {
	m := NewManager(16)

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[m.EventBucket(string(rune('a'+i%26))+string(rune('0'+i%10)))] = true
	}
	assert.Greater(t, len(seen), 1, "distinct ids should not all land in one bucket")
}

func TestDateBucket(t *testing.T) {
	m := NewManager(16)

	ts := time.Date(2025, time.March, 9, 23, 59, 0, 0, time.FixedZone("UTC+2", 2*3600))
	assert.Equal(t, "2025-03-09", m.DateBucket(ts))
}

package bucketing

import (
	"hash"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// Manager assigns stable partition buckets for the security event
// store. Murmur3 keeps assignments consistent across processes.
type Manager struct {
	eventBuckets int
	hasherPool   sync.Pool
}

func NewManager(eventBuckets int) *Manager {
	if eventBuckets <= 0 {
		eventBuckets = 16
	}
	m := &Manager{
		eventBuckets: eventBuckets,
	}
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}
	return m
}

func (m *Manager) bucket(id string, buckets int) int {
	h := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(h)

	h.Reset()
	_, _ = h.Write([]byte(id))
	return int(h.Sum64() % uint64(buckets))
}

// EventBucket returns the partition for an event id (0..eventBuckets-1).
func (m *Manager) EventBucket(id string) int {
	return m.bucket(id, m.eventBuckets)
}

// DateBucket returns the calendar-day partition value written with
// each row of the security event table.
func (m *Manager) DateBucket(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

package histogram

import (
	"sync"

	"go.uber.org/atomic"
)

// ShardCount is the number of shards.
const ShardCount = 32

// shard is a lock-guarded slice of the key space.
type shard[K comparable] struct {
	sync.RWMutex // guards counts; the counters themselves are atomic

	counts map[K]*atomic.Int64
}

func newShards[K comparable]() []*shard[K] {
	shards := make([]*shard[K], ShardCount)
	for i := range ShardCount {
		shards[i] = &shard[K]{counts: make(map[K]*atomic.Int64)}
	}

	return shards
}

// counter returns the counter for key, creating it on first use.
func (s *shard[K]) counter(key K) *atomic.Int64 {
	s.RLock()
	c, ok := s.counts[key]
	s.RUnlock()

	if ok {
		return c
	}

	s.Lock()
	defer s.Unlock()

	c, ok = s.counts[key]
	if !ok {
		c = atomic.NewInt64(0)
		s.counts[key] = c
	}

	return c
}

// each calls fn for every key of the shard under its read lock.
func (s *shard[K]) each(fn func(key K, count int64)) {
	s.RLock()
	defer s.RUnlock()

	for key, c := range s.counts {
		fn(key, c.Load())
	}
}

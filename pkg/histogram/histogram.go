// Package histogram counts occurrences of keys, for measuring where work goes.
//
// Counts are kept in a sharded map so concurrent increments of different keys do
// not contend. Reading the top values while keys are still being incremented is
// allowed, but the view may be only partly updated.
package histogram

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Histogram maintains a count for each key.
type Histogram[K comparable] struct {
	shards   []*shard[K]
	toString func(K) string
}

// New returns an empty Histogram. toString names keys in reports and picks their shard;
// when nil, fmt.Sprint is used.
func New[K comparable](toString func(K) string) *Histogram[K] {
	if toString == nil {
		toString = func(key K) string { return fmt.Sprint(key) }
	}

	return &Histogram[K]{shards: newShards[K](), toString: toString}
}

// NewString returns an empty Histogram keyed by strings.
func NewString() *Histogram[string] {
	return New(func(key string) string { return key })
}

func (h *Histogram[K]) shardFor(key K) *shard[K] {
	return h.shards[xxhash.Sum64String(h.toString(key))%ShardCount]
}

// Increment increments the given key and returns its new count.
func (h *Histogram[K]) Increment(key K) int64 {
	return h.Add(key, 1)
}

// Add increments the given key by count and returns its new count.
func (h *Histogram[K]) Add(key K, count int64) int64 {
	return h.shardFor(key).counter(key).Add(count)
}

// Count returns the current count of key.
func (h *Histogram[K]) Count(key K) int64 {
	s := h.shardFor(key)

	s.RLock()
	defer s.RUnlock()

	if c, ok := s.counts[key]; ok {
		return c.Load()
	}

	return 0
}

// Entry is one key and its count.
type Entry struct {
	Key   string `codec:"key"   json:"key"   msgpack:"key"`
	Count int64  `codec:"count" json:"count" msgpack:"count"`
}

// Top returns the numValues most frequent keys, by count and then by name, both descending.
func (h *Histogram[K]) Top(numValues int) []Entry {
	var entries []Entry

	for _, s := range h.shards {
		s.each(func(key K, count int64) {
			entries = append(entries, Entry{Key: h.toString(key), Count: count})
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(b.Key, a.Key)
	})

	if numValues < len(entries) {
		entries = entries[:max(numValues, 0)]
	}

	return entries
}

// TopValues renders the numValues most frequent keys, one "key: count" per line,
// with the keys padded to the same width.
func (h *Histogram[K]) TopValues(numValues int) string {
	entries := h.Top(numValues)

	longestKey := 0
	for _, e := range entries {
		longestKey = max(longestKey, len(e.Key))
	}

	var output strings.Builder
	for _, e := range entries {
		output.WriteString(e.Key)
		output.WriteString(strings.Repeat(" ", longestKey-len(e.Key)))
		output.WriteString(": ")
		output.WriteString(strconv.FormatInt(e.Count, 10))
		output.WriteByte('\n')
	}

	return output.String()
}

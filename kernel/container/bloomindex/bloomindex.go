// Package bloomindex is an optional fast-path negative lookup sitting
// in front of an orderedmap.Map: a bloom.BloomFilter answers "definitely
// absent" without touching the map/mutex at all, the same dedup shape
// kernel/core/mesh/routing/gossip.go uses for its seenFilter
// (bloom.NewWithEstimates, .Test, .Add) against a high-churn id set.
// kernel/schemastore uses it in front of its msg-name maps, which are
// read on every message ingress/egress.
package bloomindex

import "github.com/bits-and-blooms/bloom/v3"

// Index wraps a bloom filter with the same periodic-reset discipline
// gossip.go applies, since bloom filters only ever saturate (Test
// never "un-learns" a key without a full reset).
type Index struct {
	filter            *bloom.BloomFilter
	expectedElements  uint
	falsePositiveRate float64
}

// New builds an Index sized for expectedElements entries at the given
// false-positive rate, matching gossip.go's config shape
// (ExpectedElements/FalsePositiveRate).
func New(expectedElements uint, falsePositiveRate float64) *Index {
	return &Index{
		filter:            bloom.NewWithEstimates(expectedElements, falsePositiveRate),
		expectedElements:  expectedElements,
		falsePositiveRate: falsePositiveRate,
	}
}

// MaybeContains reports whether key might be present. false is
// authoritative (definitely absent); true requires a real map lookup to
// confirm, since bloom filters have false positives but no false
// negatives.
func (idx *Index) MaybeContains(key string) bool {
	return idx.filter.Test([]byte(key))
}

// Add records key as present.
func (idx *Index) Add(key string) {
	idx.filter.Add([]byte(key))
}

// Reset replaces the filter with an empty one of the same size, the
// same "reset periodically" maintenance gossip.go performs to bound the
// false-positive rate as the working set churns.
func (idx *Index) Reset() {
	idx.filter = bloom.NewWithEstimates(idx.expectedElements, idx.falsePositiveRate)
}

package trackset

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// DefaultFilterCapacity is the number of delivered tracks a filter is
	// sized for: about four years of weekly full playlists.
	DefaultFilterCapacity = 20000

	// DefaultFalsePositiveRate is the filter's target false positive rate.
	// A false positive only drops one candidate recommendation.
	DefaultFalsePositiveRate = 0.001
)

// Filter remembers tracks already delivered to a listener without storing
// the IDs themselves. Has may report a false positive, never a false negative.
type Filter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewFilter creates an empty filter sized for capacity tracks.
func NewFilter(capacity int) *Filter {
	if capacity < 1 {
		capacity = DefaultFilterCapacity
	}
	return &Filter{filter: bloom.NewWithEstimates(uint(capacity), DefaultFalsePositiveRate)}
}

// Has reports whether id was probably added before.
func (f *Filter) Has(id string) bool {
	if id == "" {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(id)
}

// AddAll records every non-empty id.
func (f *Filter) AddAll(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			f.filter.AddString(id)
		}
	}
}

// Count estimates how many distinct tracks were added.
func (f *Filter) Count() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.ApproximatedSize()
}

// MarshalBinary encodes the filter for storage.
func (f *Filter) MarshalBinary() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var buf bytes.Buffer
	if _, err := f.filter.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding track filter: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalFilter decodes a filter written by MarshalBinary.
func UnmarshalFilter(data []byte) (*Filter, error) {
	bf := &bloom.BloomFilter{}
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decoding track filter: %w", err)
	}
	return &Filter{filter: bf}, nil
}

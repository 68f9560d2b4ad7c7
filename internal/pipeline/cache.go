package pipeline

import (
	"fmt"

	"go-segment-report/internal/model"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds the number of memoized sections per session.
const DefaultCacheSize = 256

// SectionCache memoizes computed report sections. Identical concurrent
// requests are collapsed into a single computation.
type SectionCache struct {
	entries *lru.Cache[string, *model.Section]
	group   singleflight.Group
}

// NewSectionCache creates a cache holding at most size sections.
func NewSectionCache(size int) (*SectionCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, *model.Section](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create section cache: %w", err)
	}
	return &SectionCache{entries: entries}, nil
}

// cacheKey identifies a section of a session for one income category.
func cacheKey(sessionID, section, incomeCategory string) string {
	return sessionID + "\x00" + section + "\x00" + incomeCategory
}

// GetOrCompute returns the memoized section for key, computing it on a miss.
// Failed computations are not memoized.
func (c *SectionCache) GetOrCompute(key string, compute func() (*model.Section, error)) (*model.Section, bool, error) {
	if s, ok := c.entries.Get(key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return s, true, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		s, err := compute()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, s)
		return s, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*model.Section), false, nil
}

// Len returns the number of memoized sections.
func (c *SectionCache) Len() int {
	return c.entries.Len()
}

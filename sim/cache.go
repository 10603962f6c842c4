package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// A CalculationCache memoizes expensive sub-calculations of one component
// instance, keyed by a deterministic hash of the rounded numeric inputs.
//
// The cache is private to the owning component. It never evicts; a
// simulation run is bounded in length, so unbounded growth is acceptable
// for the lifetime of the process.
type CalculationCache struct {
	entries map[string][]float64
}

// NewCalculationCache creates an empty cache.
func NewCalculationCache() *CalculationCache {
	return &CalculationCache{
		entries: make(map[string][]float64),
	}
}

// CacheKey builds the cache key for a calculation mode and its numeric
// inputs. Inputs are rounded to one decimal so that physically identical
// requests hit the same entry.
func CacheKey(mode int, inputs ...float64) string {
	parts := make([]string, 0, len(inputs)+1)
	for _, v := range inputs {
		rounded := math.Round(v*10) / 10
		parts = append(parts, strconv.FormatFloat(rounded, 'f', -1, 64))
	}
	parts = append(parts, strconv.Itoa(mode))

	sum := sha256.Sum256([]byte(strings.Join(parts, " ")))

	return hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached results for key, computing and storing
// them on a miss.
func (c *CalculationCache) GetOrCompute(
	key string,
	compute func() []float64,
) []float64 {
	if results, hit := c.entries[key]; hit {
		return results
	}

	results := compute()
	c.entries[key] = results

	return results
}

// Lookup returns the cached results for key, if present.
func (c *CalculationCache) Lookup(key string) ([]float64, bool) {
	results, hit := c.entries[key]
	return results, hit
}

// Len returns the number of cached entries.
func (c *CalculationCache) Len() int {
	return len(c.entries)
}

package sequence

import (
	"context"
	"math/big"
	"sync"
)

// DefaultMemoLimit bounds the memoized strategy. The cache keeps every term
// up to the largest index requested, so memory grows with the square of the
// index; F(20000) keeps the cache around 17 MB.
const DefaultMemoLimit = 20_000

// MemoCache stores Fibonacci terms for the memoized strategy. It grows
// monotonically and is never evicted. An Engine owns exactly one cache,
// created by NewEngine or injected with WithMemoCache; no cache is shared
// implicitly between engines.
//
// MemoCache is safe for concurrent use: a lookup and all insertions it
// triggers happen under one lock.
type MemoCache struct {
	mu     sync.Mutex
	values map[uint64]*big.Int
}

// NewMemoCache returns a cache seeded with F(0) and F(1).
func NewMemoCache() *MemoCache {
	return &MemoCache{values: map[uint64]*big.Int{
		0: big.NewInt(0),
		1: big.NewInt(1),
	}}
}

// Len returns the number of cached terms.
func (c *MemoCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Contains reports whether F(n) is already cached.
func (c *MemoCache) Contains(n uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[n]
	return ok
}

// Fibonacci returns a copy of F(n), computing and caching any missing terms.
func (c *MemoCache) Fibonacci(n uint64) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.lookup(n))
}

// lookup must be called with c.mu held. Stored values are never mutated.
func (c *MemoCache) lookup(n uint64) *big.Int {
	if v, ok := c.values[n]; ok {
		return v
	}
	// F(n-1) first: it fills every lower index, so F(n-2) is a map hit.
	v := new(big.Int).Add(c.lookup(n-1), c.lookup(n-2))
	c.values[n] = v
	return v
}

type memoizedRecursive struct {
	cache *MemoCache
}

func (m memoizedRecursive) term(_ context.Context, _ Kind, n uint64) (Value, error) {
	return exactValue(n, m.cache.Fibonacci(n)), nil
}

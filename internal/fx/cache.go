package fx

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/mmynk/clawback/internal/money"
)

// Cached memoizes successful lookups of another RateFunc for ttl.
// Failures are not cached.
type Cached struct {
	next  RateFunc
	store *cache.Cache
}

// NewCached wraps next with an in-memory TTL cache.
func NewCached(next RateFunc, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		store: cache.New(ttl, 2*ttl),
	}
}

// Rate implements RateFunc.
func (c *Cached) Rate(base, quote money.Currency) (decimal.Decimal, error) {
	if base == quote {
		return decimal.NewFromInt(1), nil
	}
	k := key(base, quote)
	if v, ok := c.store.Get(k); ok {
		return v.(decimal.Decimal), nil
	}
	r, err := c.next(base, quote)
	if err != nil {
		return decimal.Zero, err
	}
	c.store.Set(k, r, cache.DefaultExpiration)
	return r, nil
}

// Flush drops every cached rate.
func (c *Cached) Flush() {
	c.store.Flush()
}

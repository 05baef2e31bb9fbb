package http

import (
	"context"

	"billed/internal/bills"
	"billed/internal/cache"
	"billed/internal/core"
)

// cachedService serves List from the LRU cache. Saving a bill drops the
// owner's entry and the admin entry.
type cachedService struct {
	bills.Service
	cache *cache.LRUCache[[]core.Bill]
}

func (c cachedService) List(ctx context.Context, email string) ([]core.Bill, error) {
	key := listCacheKey(email)
	if list, ok := c.cache.Get(key); ok {
		return list, nil
	}
	list, err := c.Service.List(ctx, email)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, list)
	return list, nil
}

func (c cachedService) CreateOrUpdate(ctx context.Context, bill core.Bill, receipt core.Receipt) (core.Bill, error) {
	defer c.invalidate(bill.Email)
	return c.Service.CreateOrUpdate(ctx, bill, receipt)
}

func (c cachedService) invalidate(email string) {
	c.cache.Delete(listCacheKey(email))
	c.cache.Delete(listCacheKey(""))
}

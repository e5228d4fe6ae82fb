package cache

import (
	"context"
	"time"

	"smartpurse/backend/internal/domain"
)

// StoreCache memoizes store lookups by store id.
type StoreCache interface {
	Get(ctx context.Context, storeID string) ([]domain.Store, bool, error)
	Set(ctx context.Context, storeID string, stores []domain.Store, ttl time.Duration) error
}

type NoopStoreCache struct{}

func (NoopStoreCache) Get(_ context.Context, _ string) ([]domain.Store, bool, error) {
	return nil, false, nil
}

func (NoopStoreCache) Set(_ context.Context, _ string, _ []domain.Store, _ time.Duration) error {
	return nil
}

func storeKey(storeID string) string {
	return "smartpurse:stores:" + storeID
}

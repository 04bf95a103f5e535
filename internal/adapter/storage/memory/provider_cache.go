package memory

import (
	"context"
	"fmt"
	"time"

	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
	domainRepo "chaindetect/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.ClientCache = (*ProviderCache)(nil)

const providerKeyPrefix = "provider_client_"

// ProviderCache implements domainRepo.ClientCache using the go-cache
// in-memory library. Expired entries are evicted by the cache janitor; an
// evicted handle is closed if it supports closing.
type ProviderCache struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewProviderCache creates a new in-memory provider cache instance.
func NewProviderCache(cfg config.DetectorConfig, logger *zap.Logger) *ProviderCache {
	ttl := cfg.GetProviderCacheTTL()

	c := cache.New(ttl, ttl)
	c.OnEvicted(func(key string, value any) {
		if closer, ok := value.(interface{ Close() }); ok {
			closer.Close()
		}
	})

	logger.Info("Initialized go-cache for provider clients",
		zap.Duration("ttl", ttl),
	)

	return &ProviderCache{
		cache:  c,
		logger: logger.Named("ProviderCache"),
	}
}

// Get retrieves the cached client handle for an endpoint, returning found status.
func (r *ProviderCache) Get(_ context.Context, endpoint entity.RPCURL) (any, bool, error) {
	key := providerKeyPrefix + endpoint.String()
	if x, found := r.cache.Get(key); found {
		r.logger.Debug("Provider cache hit", zap.String("endpoint", endpoint.String()))
		return x, true, nil
	}
	r.logger.Debug("Provider cache miss", zap.String("endpoint", endpoint.String()))
	return nil, false, nil
}

// Set stores a freshly connected client handle for an endpoint with the given TTL.
func (r *ProviderCache) Set(_ context.Context, endpoint entity.RPCURL, client any, ttl time.Duration) error {
	if client == nil {
		return fmt.Errorf("refusing to cache nil client for endpoint %s", endpoint)
	}
	key := providerKeyPrefix + endpoint.String()
	r.cache.Set(key, client, ttl)
	r.logger.Debug("Provider cache set",
		zap.String("endpoint", endpoint.String()), zap.Duration("ttl", ttl),
	)
	return nil
}

package rpc

import (
	"context"
	"fmt"
	"time"

	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
	domainRepo "chaindetect/internal/domain/repository"
	"chaindetect/internal/pkg/apperrors"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Compile-time check
var _ connResolver = (*Resolver)(nil)

// Dialer establishes a connection to a single endpoint.
type Dialer func(ctx context.Context, endpoint string) (EVMConn, error)

func ethDialer(ctx context.Context, endpoint string) (EVMConn, error) {
	return ethclient.DialContext(ctx, endpoint)
}

// Resolver turns an ordered endpoint list into a connected, live client.
// Recently healthy endpoints are served from the cache without any network
// call; otherwise the list is walked in preference order with exponential
// backoff between failures. The backoff schedule is shared across endpoints
// within one Resolve call: it keeps growing from failure to failure and is
// capped, never reset mid-call.
type Resolver struct {
	cache  domainRepo.ClientCache
	cfg    config.DetectorConfig
	logger *zap.Logger
	dial   Dialer
	sleep  func(ctx context.Context, d time.Duration)
}

// NewResolver creates a resolver backed by the given client cache.
func NewResolver(cache domainRepo.ClientCache, cfg config.DetectorConfig, logger *zap.Logger) *Resolver {
	return &Resolver{
		cache:  cache,
		cfg:    cfg,
		logger: logger.Named("ProviderResolver"),
		dial:   ethDialer,
		sleep:  sleepCtx,
	}
}

// Resolve returns a connected client for the first reachable endpoint, or
// false when the whole list is unreachable. Callers must treat a false
// return as "chain unreachable", not as a fatal error.
func (r *Resolver) Resolve(ctx context.Context, endpoints []entity.RPCURL, useCache bool) (EVMConn, bool) {
	if useCache {
		for _, ep := range endpoints {
			cached, found, err := r.cache.Get(ctx, ep)
			if err != nil {
				r.logger.Warn("Provider cache lookup failed", zap.String("endpoint", ep.String()), zap.Error(err))
				continue
			}
			if !found {
				continue
			}
			conn, ok := cached.(EVMConn)
			if !ok {
				r.logger.Warn("Provider cache data type mismatch",
					zap.String("endpoint", ep.String()), zap.Any("type", fmt.Sprintf("%T", cached)),
				)
				continue
			}
			r.logger.Debug("Resolved provider from cache", zap.String("endpoint", ep.String()))
			return conn, true
		}
	}

	backoff := r.cfg.BackoffStart
	factor := time.Duration(r.cfg.BackoffFactor)
	if factor < 2 {
		factor = 2
	}

	for _, ep := range endpoints {
		if ctx.Err() != nil {
			return nil, false
		}

		conn, err := r.connect(ctx, ep)
		if err == nil {
			if cacheErr := r.cache.Set(ctx, ep, conn, r.cfg.GetProviderCacheTTL()); cacheErr != nil {
				r.logger.Warn("Failed to cache resolved provider",
					zap.String("endpoint", ep.String()), zap.Error(cacheErr),
				)
			}
			r.logger.Debug("Resolved provider", zap.String("endpoint", ep.String()))
			return conn, true
		}

		r.logger.Debug("Endpoint connection failed, backing off",
			zap.String("endpoint", ep.String()),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		r.sleep(ctx, backoff)
		backoff *= factor
		if backoff > r.cfg.BackoffCap {
			backoff = r.cfg.BackoffCap
		}
	}

	return nil, false
}

// connect dials the endpoint and verifies it answers a network identity
// request, both bounded by the per-call timeout.
func (r *Resolver) connect(ctx context.Context, ep entity.RPCURL) (EVMConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, r.cfg.GetRPCTimeout())
	defer cancel()

	conn, err := r.dial(dialCtx, ep.String())
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s failed: %v", apperrors.ErrExternalServiceFailure, ep, err)
	}

	if _, err := conn.ChainID(dialCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: chain id check for %s failed: %v", apperrors.ErrExternalServiceFailure, ep, err)
	}

	return conn, nil
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

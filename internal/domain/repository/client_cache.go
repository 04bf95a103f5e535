package repository

import (
	"context"
	"time"

	"chaindetect/internal/domain/entity"
)

// ClientCache stores live provider handles keyed by endpoint URL. Entries are
// superseded by fresher successful connections and expire passively; the
// cache is shared process-wide and must tolerate concurrent access. Handles
// are stored as opaque values so the domain stays free of transport types.
type ClientCache interface {
	// Get retrieves the cached handle for an endpoint, returning found status.
	Get(ctx context.Context, endpoint entity.RPCURL) (any, bool, error)

	// Set stores a freshly connected handle for an endpoint with the given TTL.
	Set(ctx context.Context, endpoint entity.RPCURL, client any, ttl time.Duration) error
}

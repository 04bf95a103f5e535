package service

import (
	"context"

	"chaindetect/internal/domain/entity"
)

// SolanaTokenChecker asks a single Solana endpoint whether an address is a
// token mint or token account owned by one of the SPL token programs.
type SolanaTokenChecker interface {
	IsTokenAccount(ctx context.Context, endpoint entity.RPCURL, address string) (bool, error)
}

// EVMProber runs the per-chain EVM predicates. Implementations resolve a
// provider internally (with caching and backoff) and absorb provider
// unavailability into a negative result.
type EVMProber interface {
	// IsTokenContract reports whether address carries deployed code that
	// answers a minimal ERC-20 totalSupply call on the given chain.
	IsTokenContract(ctx context.Context, chain entity.ChainID, address string) (bool, error)

	// HasTransacted reports whether address has a nonce above zero on the
	// given chain.
	HasTransacted(ctx context.Context, chain entity.ChainID, address string) (bool, error)
}

// TransactionChecker asks a single endpoint whether it knows a transaction hash.
type TransactionChecker interface {
	HasTransaction(ctx context.Context, endpoint entity.RPCURL, hash string) (bool, error)
}

// RateLimiter guards outbound probe volume per logical operation key.
// Allow never blocks; a false return means the enclosing operation must fail
// with a rate-limit error.
type RateLimiter interface {
	Allow(key string) bool
}

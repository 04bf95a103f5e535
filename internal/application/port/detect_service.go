package port

import (
	"context"

	"chaindetect/internal/domain/entity"
)

// DetectService defines the interface for the core chain-detection logic.
type DetectService interface {
	// Detect classifies an arbitrary pasted string into chain, address type
	// and transaction-ness. Only rate-limit denials surface as errors.
	Detect(ctx context.Context, input string) (entity.DetectionResult, error)

	// CheckSolanaToken reports whether address is a token on Solana,
	// probing several endpoints in parallel.
	CheckSolanaToken(ctx context.Context, address string) (bool, error)

	// CheckEVMToken reports the first EVM chain, in fixed order, that
	// recognizes address as a token contract.
	CheckEVMToken(ctx context.Context, address string) (entity.EVMTokenResult, error)

	// CheckEVMNonce reports the first EVM chain, in fixed order, on which
	// address has transacted, or nil.
	CheckEVMNonce(ctx context.Context, address string) (*entity.ChainID, error)

	// DetectTransactionChain reports which chain a transaction hash belongs
	// to, or ChainUnknown. It never fails.
	DetectTransactionChain(ctx context.Context, hash string) entity.ChainID
}

package rpc

import (
	"context"
	"errors"
	"fmt"

	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
	domainService "chaindetect/internal/domain/service"
	"chaindetect/internal/pkg/apperrors"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainService.SolanaTokenChecker = (*SolanaChecker)(nil)

// Owner programs that mark a Solana account as token-shaped: the original
// SPL Token program and the newer Token-2022 program.
var (
	tokenProgramID     = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// solanaRPC is the slice of the solana-go RPC client the checker needs.
type solanaRPC interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solrpc.GetAccountInfoResult, error)
}

// SolanaChecker asks Solana endpoints whether an address is owned by one of
// the token programs. Clients are constructed per call; Solana probes are
// direct and never go through the provider cache.
type SolanaChecker struct {
	cfg       config.DetectorConfig
	logger    *zap.Logger
	newClient func(endpoint string) solanaRPC
}

// NewSolanaChecker creates a checker over the solana-go RPC client.
func NewSolanaChecker(cfg config.DetectorConfig, logger *zap.Logger) *SolanaChecker {
	return &SolanaChecker{
		cfg:    cfg,
		logger: logger.Named("SolanaChecker"),
		newClient: func(endpoint string) solanaRPC {
			return solrpc.New(endpoint)
		},
	}
}

// IsTokenAccount fetches the account behind address from the given endpoint
// and reports whether its owner is one of the token programs. A missing
// account is a plain negative.
func (c *SolanaChecker) IsTokenAccount(ctx context.Context, endpoint entity.RPCURL, address string) (bool, error) {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false, fmt.Errorf("%w: not a solana public key '%s': %v", apperrors.ErrInvalidInput, address, err)
	}

	callCtx, cancel := ensureTimeout(ctx, c.cfg.GetRPCTimeout())
	defer cancel()

	out, err := c.newClient(endpoint.String()).GetAccountInfo(callCtx, pk)
	if errors.Is(err, solrpc.ErrNotFound) {
		c.logger.Debug("Account not found",
			zap.String("endpoint", endpoint.String()), zap.String("address", address),
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: getAccountInfo via %s: %v", apperrors.ErrExternalServiceFailure, endpoint, err)
	}
	if out == nil || out.Value == nil {
		return false, nil
	}

	owner := out.Value.Owner
	return owner.Equals(tokenProgramID) || owner.Equals(token2022ProgramID), nil
}

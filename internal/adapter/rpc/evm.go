package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"chaindetect/internal/config"
	"chaindetect/internal/domain"
	"chaindetect/internal/domain/entity"
	domainService "chaindetect/internal/domain/service"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Compile-time checks
var (
	_ domainService.EVMProber = (*EVMProber)(nil)
	_ EVMConn                 = (*ethclient.Client)(nil)
)

// EVMConn is the slice of ethclient.Client the detection engine needs.
type EVMConn interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// erc20TotalSupplySelector is the 4-byte selector of totalSupply().
var erc20TotalSupplySelector = common.FromHex("0x18160ddd")

// connResolver yields a connected provider for an ordered endpoint list.
type connResolver interface {
	Resolve(ctx context.Context, endpoints []entity.RPCURL, useCache bool) (EVMConn, bool)
}

// EVMProber implements the per-chain EVM predicates on top of a resolved
// provider. Provider unavailability is absorbed into a negative result;
// transport failures are reported so the caller can absorb them at its own
// scope.
type EVMProber struct {
	resolver  connResolver
	endpoints map[entity.ChainID][]entity.RPCURL
	cfg       config.DetectorConfig
	logger    *zap.Logger
}

// NewEVMProber creates a prober over the configured per-chain endpoint lists.
func NewEVMProber(
	resolver *Resolver,
	endpoints map[entity.ChainID][]entity.RPCURL,
	cfg config.DetectorConfig,
	logger *zap.Logger,
) *EVMProber {
	return &EVMProber{
		resolver:  resolver,
		endpoints: endpoints,
		cfg:       cfg,
		logger:    logger.Named("EVMProber"),
	}
}

// IsTokenContract reports whether address carries deployed code that answers
// a minimal ERC-20 totalSupply call on the given chain. An address with code
// that rejects the call is not a token; that is a defined negative, not a
// failure.
func (p *EVMProber) IsTokenContract(ctx context.Context, chain entity.ChainID, address string) (bool, error) {
	conn, ok := p.resolver.Resolve(ctx, p.endpoints[chain], true)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, chain)
	}

	addr := common.HexToAddress(address)

	codeCtx, cancel := ensureTimeout(ctx, p.cfg.GetRPCTimeout())
	code, err := conn.CodeAt(codeCtx, addr, nil)
	cancel()
	if err != nil {
		return false, fmt.Errorf("%w: eth_getCode for %s on %s: %v", domain.ErrProbeFailed, address, chain, err)
	}
	if len(code) == 0 {
		p.logger.Debug("No code deployed at address",
			zap.String("chain", string(chain)), zap.String("address", address),
		)
		return false, nil
	}

	callCtx, cancel := ensureTimeout(ctx, p.cfg.GetRPCTimeout())
	out, err := conn.CallContract(callCtx, ethereum.CallMsg{To: &addr, Data: erc20TotalSupplySelector}, nil)
	cancel()
	if err != nil || len(out) == 0 {
		p.logger.Debug("totalSupply call rejected, contract is not token-shaped",
			zap.String("chain", string(chain)), zap.String("address", address), zap.Error(err),
		)
		return false, nil
	}

	return true, nil
}

// HasTransacted reports whether address has sent at least one transaction on
// the given chain.
func (p *EVMProber) HasTransacted(ctx context.Context, chain entity.ChainID, address string) (bool, error) {
	conn, ok := p.resolver.Resolve(ctx, p.endpoints[chain], true)
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, chain)
	}

	callCtx, cancel := ensureTimeout(ctx, p.cfg.GetRPCTimeout())
	defer cancel()

	nonce, err := conn.NonceAt(callCtx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Errorf("%w: eth_getTransactionCount for %s on %s: %v", domain.ErrProbeFailed, address, chain, err)
	}
	return nonce > 0, nil
}

// ensureTimeout bounds a remote call: it reuses the parent's deadline when
// one is already set and otherwise derives a fresh one from timeout.
// Cancelling the returned context also cancels the in-flight transport
// request, so an abandoned call does not linger.
func ensureTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := parent.Deadline(); hasDeadline {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

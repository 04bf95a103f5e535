package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chaindetect/internal/application/port"
	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
	domainService "chaindetect/internal/domain/service"
	"chaindetect/internal/pkg/apperrors"

	"go.uber.org/zap"
)

// Compile-time check to ensure detectService implements DetectService
var _ port.DetectService = (*detectService)(nil)

// Rate-limit keys for the gated operations.
const (
	rateKeySolana   = "solana"
	rateKeyEVM      = "evm"
	rateKeyEVMNonce = "evm-nonce"
)

// detectService implements the port.DetectService interface orchestrating
// multi-chain probes. Every fan-out joins positionally and reduces by the
// fixed chain order, never by completion order.
type detectService struct {
	endpoints entity.Endpoints
	solana    domainService.SolanaTokenChecker
	evm       domainService.EVMProber
	tx        domainService.TransactionChecker
	limiter   domainService.RateLimiter
	logger    *zap.Logger
	cfg       config.DetectorConfig
}

// NewDetectService creates a new instance of the detection service.
func NewDetectService(
	endpoints entity.Endpoints,
	solana domainService.SolanaTokenChecker,
	evm domainService.EVMProber,
	tx domainService.TransactionChecker,
	limiter domainService.RateLimiter,
	logger *zap.Logger,
	cfg config.DetectorConfig,
) port.DetectService {
	return &detectService{
		endpoints: endpoints,
		solana:    solana,
		evm:       evm,
		tx:        tx,
		limiter:   limiter,
		logger:    logger.Named("DetectService"),
		cfg:       cfg,
	}
}

// Detect classifies an arbitrary pasted string. Format decides the route;
// probes decide the answer. Malformed input collapses to the unknown result.
func (s *detectService) Detect(ctx context.Context, input string) (entity.DetectionResult, error) {
	input = strings.TrimSpace(input)

	switch {
	case entity.IsTransactionHash(input):
		chain := s.DetectTransactionChain(ctx, input)
		result := entity.DetectionResult{AddressType: entity.AddressTypeUnknown, IsTransaction: true}
		if chain != entity.ChainUnknown {
			result.Chain = &chain
		}
		return result, nil

	case entity.IsSolanaAddress(input):
		isToken, err := s.CheckSolanaToken(ctx, input)
		if err != nil {
			return entity.DetectionResult{AddressType: entity.AddressTypeUnknown}, err
		}
		chain := entity.ChainSolana
		addressType := entity.AddressTypeWallet
		if isToken {
			addressType = entity.AddressTypeToken
		}
		return entity.DetectionResult{Chain: &chain, AddressType: addressType}, nil

	case entity.IsEVMAddress(input):
		tokenRes, err := s.CheckEVMToken(ctx, input)
		if err != nil {
			return entity.DetectionResult{AddressType: entity.AddressTypeUnknown}, err
		}
		if tokenRes.IsToken {
			return entity.DetectionResult{Chain: tokenRes.Chain, AddressType: entity.AddressTypeToken}, nil
		}

		chain, err := s.CheckEVMNonce(ctx, input)
		if err != nil {
			return entity.DetectionResult{AddressType: entity.AddressTypeUnknown}, err
		}
		if chain != nil {
			return entity.DetectionResult{Chain: chain, AddressType: entity.AddressTypeWallet}, nil
		}
		return entity.DetectionResult{AddressType: entity.AddressTypeUnknown}, nil

	default:
		s.logger.Debug("Input matches no known format", zap.String("input", input))
		return entity.DetectionResult{AddressType: entity.AddressTypeUnknown}, nil
	}
}

// CheckSolanaToken probes the top Solana endpoints in parallel, directly and
// without the provider cache; any single positive wins.
func (s *detectService) CheckSolanaToken(ctx context.Context, address string) (bool, error) {
	if !s.limiter.Allow(rateKeySolana) {
		return false, fmt.Errorf("%w: key %q", apperrors.ErrRateLimited, rateKeySolana)
	}

	endpoints := topEndpoints(s.endpoints.Solana, s.cfg.SolanaFanout)
	results := make([]bool, len(endpoints))

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep entity.RPCURL) {
			defer wg.Done()
			ok, err := s.solana.IsTokenAccount(ctx, ep, address)
			if err != nil {
				s.logger.Debug("Solana token probe failed",
					zap.String("endpoint", ep.String()), zap.Error(err),
				)
				return
			}
			results[i] = ok
		}(i, ep)
	}
	wg.Wait()

	for _, ok := range results {
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// CheckEVMToken probes all EVM chains concurrently and reduces to the first
// positive chain in fixed order.
func (s *detectService) CheckEVMToken(ctx context.Context, address string) (entity.EVMTokenResult, error) {
	if !s.limiter.Allow(rateKeyEVM) {
		return entity.EVMTokenResult{}, fmt.Errorf("%w: key %q", apperrors.ErrRateLimited, rateKeyEVM)
	}

	chains := entity.EVMChainOrder()
	results := s.probeChains(ctx, chains, address, s.evm.IsTokenContract)

	for i, chain := range chains {
		if results[i] {
			c := chain
			return entity.EVMTokenResult{Chain: &c, IsToken: true}, nil
		}
	}
	return entity.EVMTokenResult{}, nil
}

// CheckEVMNonce reports the first EVM chain in fixed order on which address
// has sent a transaction.
func (s *detectService) CheckEVMNonce(ctx context.Context, address string) (*entity.ChainID, error) {
	if !s.limiter.Allow(rateKeyEVMNonce) {
		return nil, fmt.Errorf("%w: key %q", apperrors.ErrRateLimited, rateKeyEVMNonce)
	}

	chains := entity.EVMChainOrder()
	results := s.probeChains(ctx, chains, address, s.evm.HasTransacted)

	for i, chain := range chains {
		if results[i] {
			c := chain
			return &c, nil
		}
	}
	return nil, nil
}

// probeChains fans a per-chain predicate out across all chains, joining
// results positionally so reduction order stays independent of network
// jitter. Probe failures are logged and count as negative.
func (s *detectService) probeChains(
	ctx context.Context,
	chains []entity.ChainID,
	address string,
	probe func(ctx context.Context, chain entity.ChainID, address string) (bool, error),
) []bool {
	results := make([]bool, len(chains))

	var wg sync.WaitGroup
	for i, chain := range chains {
		wg.Add(1)
		go func(i int, chain entity.ChainID) {
			defer wg.Done()
			ok, err := probe(ctx, chain, address)
			if err != nil {
				s.logger.Debug("EVM probe failed",
					zap.String("chain", string(chain)), zap.String("address", address), zap.Error(err),
				)
				return
			}
			results[i] = ok
		}(i, chain)
	}
	wg.Wait()

	return results
}

// DetectTransactionChain classifies a transaction hash. Solana signatures
// are recognized from format alone without any RPC call; EVM-shaped hashes
// race the top endpoints of every EVM chain. The launch order
// {solana, ethereum, bsc, base} breaks ties. Never fails: anything that goes
// wrong collapses to ChainUnknown.
func (s *detectService) DetectTransactionChain(ctx context.Context, hash string) entity.ChainID {
	evmChains := entity.EVMChainOrder()
	candidates := append([]entity.ChainID{entity.ChainSolana}, evmChains...)
	results := make([]bool, len(candidates))

	// Format is ground truth for Solana signatures; on-chain existence is
	// deliberately not verified for them.
	results[0] = entity.IsSolanaSignature(hash)

	if entity.IsEVMTxHash(hash) {
		var wg sync.WaitGroup
		for i, chain := range evmChains {
			wg.Add(1)
			go func(i int, chain entity.ChainID) {
				defer wg.Done()
				results[i+1] = s.chainHasTransaction(ctx, chain, hash)
			}(i, chain)
		}
		wg.Wait()
	}

	for i, positive := range results {
		if positive {
			return candidates[i]
		}
	}
	return entity.ChainUnknown
}

// chainHasTransaction races the chain's top endpoints for the existence
// probe; any single positive marks the chain positive.
func (s *detectService) chainHasTransaction(ctx context.Context, chain entity.ChainID, hash string) bool {
	endpoints := topEndpoints(s.endpoints.EVM[chain], s.cfg.TxEndpointsPerChain)
	if len(endpoints) == 0 {
		return false
	}

	results := make([]bool, len(endpoints))

	var wg sync.WaitGroup
	for i, ep := range endpoints {
		wg.Add(1)
		go func(i int, ep entity.RPCURL) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, s.cfg.GetRPCTimeout())
			defer cancel()

			found, err := s.tx.HasTransaction(callCtx, ep, hash)
			if err != nil {
				s.logger.Debug("Tx existence probe failed",
					zap.String("chain", string(chain)), zap.String("endpoint", ep.String()), zap.Error(err),
				)
				return
			}
			results[i] = found
		}(i, ep)
	}
	wg.Wait()

	for _, found := range results {
		if found {
			return true
		}
	}
	return false
}

// topEndpoints returns the first n endpoints in preference order.
func topEndpoints(endpoints []entity.RPCURL, n int) []entity.RPCURL {
	if n <= 0 || n >= len(endpoints) {
		return endpoints
	}
	return endpoints[:n]
}

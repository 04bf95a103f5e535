package rpc

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chaindetect/internal/config"
	"chaindetect/internal/domain/entity"
)

type fakeConn struct {
	chainIDErr error
	code       []byte
	codeErr    error
	nonce      uint64
	nonceErr   error
	callOut    []byte
	callErr    error
	closed     bool
}

func (f *fakeConn) ChainID(context.Context) (*big.Int, error) {
	if f.chainIDErr != nil {
		return nil, f.chainIDErr
	}
	return big.NewInt(1), nil
}

func (f *fakeConn) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return f.code, f.codeErr
}

func (f *fakeConn) NonceAt(context.Context, common.Address, *big.Int) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeConn) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return f.callOut, f.callErr
}

func (f *fakeConn) Close() { f.closed = true }

type fakeCache struct {
	entries map[entity.RPCURL]any
	getErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[entity.RPCURL]any)}
}

func (c *fakeCache) Get(_ context.Context, endpoint entity.RPCURL) (any, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.entries[endpoint]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, endpoint entity.RPCURL, client any, _ time.Duration) error {
	c.sets++
	c.entries[endpoint] = client
	return nil
}

func testDetectorConfig() config.DetectorConfig {
	return config.DetectorConfig{
		RPCTimeout:          time.Second,
		ProviderCacheTTL:    5 * time.Minute,
		BackoffStart:        time.Millisecond,
		BackoffCap:          4 * time.Millisecond,
		BackoffFactor:       2,
		SolanaFanout:        3,
		TxEndpointsPerChain: 2,
	}
}

func newTestResolver(cache *fakeCache, dial Dialer) (*Resolver, *[]time.Duration) {
	r := NewResolver(cache, testDetectorConfig(), zap.NewNop())
	r.dial = dial
	sleeps := &[]time.Duration{}
	r.sleep = func(_ context.Context, d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return r, sleeps
}

func TestResolveCacheHitShortCircuits(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cached := &fakeConn{}
	cache.entries["http://primary"] = cached

	dials := 0
	resolver, _ := newTestResolver(cache, func(context.Context, string) (EVMConn, error) {
		dials++
		return &fakeConn{}, nil
	})

	conn, ok := resolver.Resolve(context.Background(), []entity.RPCURL{"http://primary", "http://backup"}, true)
	require.True(t, ok)
	require.Same(t, cached, conn)
	require.Zero(t, dials, "cache hit must not issue any network call")
}

func TestResolveSkipsCacheWhenDisabled(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.entries["http://primary"] = &fakeConn{}

	dials := 0
	fresh := &fakeConn{}
	resolver, _ := newTestResolver(cache, func(context.Context, string) (EVMConn, error) {
		dials++
		return fresh, nil
	})

	conn, ok := resolver.Resolve(context.Background(), []entity.RPCURL{"http://primary"}, false)
	require.True(t, ok)
	require.Same(t, fresh, conn)
	require.Equal(t, 1, dials)
}

func TestResolveFallsThroughToNextEndpoint(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	good := &fakeConn{}
	var dialed []string
	resolver, _ := newTestResolver(cache, func(_ context.Context, endpoint string) (EVMConn, error) {
		dialed = append(dialed, endpoint)
		if endpoint == "http://dead" {
			return nil, errors.New("connection refused")
		}
		return good, nil
	})

	endpoints := []entity.RPCURL{"http://dead", "http://alive", "http://never"}
	conn, ok := resolver.Resolve(context.Background(), endpoints, true)
	require.True(t, ok)
	require.Same(t, good, conn)
	require.Equal(t, []string{"http://dead", "http://alive"}, dialed, "resolution stops at the first success")
	require.Equal(t, 1, cache.sets, "successful connection is recorded")
}

func TestResolveRejectsEndpointFailingIdentityCheck(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	broken := &fakeConn{chainIDErr: errors.New("not a json-rpc server")}
	good := &fakeConn{}
	calls := 0
	resolver, _ := newTestResolver(cache, func(context.Context, string) (EVMConn, error) {
		calls++
		if calls == 1 {
			return broken, nil
		}
		return good, nil
	})

	conn, ok := resolver.Resolve(context.Background(), []entity.RPCURL{"http://half-dead", "http://alive"}, true)
	require.True(t, ok)
	require.Same(t, good, conn)
	require.True(t, broken.closed, "failed connection must be closed")
}

func TestResolveBackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	resolver, sleeps := newTestResolver(cache, func(context.Context, string) (EVMConn, error) {
		return nil, errors.New("dead")
	})

	endpoints := []entity.RPCURL{"http://a", "http://b", "http://c", "http://d", "http://e"}
	conn, ok := resolver.Resolve(context.Background(), endpoints, true)
	require.False(t, ok)
	require.Nil(t, conn)

	// start=1ms, doubling, cap=4ms, never reset within the call
	require.Equal(t, []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
		4 * time.Millisecond,
		4 * time.Millisecond,
	}, *sleeps)
}

func TestResolveAllEndpointsFailingReturnsAbsent(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	dials := 0
	resolver, _ := newTestResolver(cache, func(context.Context, string) (EVMConn, error) {
		dials++
		return nil, errors.New("dead")
	})

	conn, ok := resolver.Resolve(context.Background(), []entity.RPCURL{"http://a", "http://b"}, true)
	require.False(t, ok)
	require.Nil(t, conn)
	require.Equal(t, 2, dials, "attempts are bounded by the endpoint list length")
	require.Zero(t, cache.sets)
}

func TestResolveIgnoresMismatchedCacheEntry(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	cache.entries["http://primary"] = "not a client"

	fresh := &fakeConn{}
	resolver, _ := newTestResolver(cache, func(context.Context, string) (EVMConn, error) {
		return fresh, nil
	})

	conn, ok := resolver.Resolve(context.Background(), []entity.RPCURL{"http://primary"}, true)
	require.True(t, ok)
	require.Same(t, fresh, conn)
}

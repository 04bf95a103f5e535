package rpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chaindetect/internal/domain/entity"
)

const (
	usdcMint     = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	systemOwner  = "11111111111111111111111111111111"
	tokenOwner   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	token22Owner = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
)

func newSolanaTestServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
}

func accountInfoResponse(owner string) string {
	return `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},` +
		`"value":{"data":["","base64"],"executable":false,"lamports":1461600,"owner":"` + owner + `","rentEpoch":361}}}`
}

func TestIsTokenAccountTokenProgramOwner(t *testing.T) {
	t.Parallel()

	srv := newSolanaTestServer(t, accountInfoResponse(tokenOwner))
	defer srv.Close()

	checker := NewSolanaChecker(testDetectorConfig(), zap.NewNop())
	ok, err := checker.IsTokenAccount(context.Background(), entity.RPCURL(srv.URL), usdcMint)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsTokenAccountToken2022Owner(t *testing.T) {
	t.Parallel()

	srv := newSolanaTestServer(t, accountInfoResponse(token22Owner))
	defer srv.Close()

	checker := NewSolanaChecker(testDetectorConfig(), zap.NewNop())
	ok, err := checker.IsTokenAccount(context.Background(), entity.RPCURL(srv.URL), usdcMint)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsTokenAccountNonTokenOwner(t *testing.T) {
	t.Parallel()

	srv := newSolanaTestServer(t, accountInfoResponse(systemOwner))
	defer srv.Close()

	checker := NewSolanaChecker(testDetectorConfig(), zap.NewNop())
	ok, err := checker.IsTokenAccount(context.Background(), entity.RPCURL(srv.URL), usdcMint)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsTokenAccountMissingAccountIsNegative(t *testing.T) {
	t.Parallel()

	srv := newSolanaTestServer(t, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":null}}`)
	defer srv.Close()

	checker := NewSolanaChecker(testDetectorConfig(), zap.NewNop())
	ok, err := checker.IsTokenAccount(context.Background(), entity.RPCURL(srv.URL), usdcMint)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsTokenAccountRejectsInvalidAddress(t *testing.T) {
	t.Parallel()

	checker := NewSolanaChecker(testDetectorConfig(), zap.NewNop())
	ok, err := checker.IsTokenAccount(context.Background(), "http://unused", "0xdAC17F958D2ee523a2206206994597C13D831ec7")
	require.Error(t, err)
	require.False(t, ok)
}

func TestIsTokenAccountUnreachableEndpoint(t *testing.T) {
	t.Parallel()

	checker := NewSolanaChecker(testDetectorConfig(), zap.NewNop())
	ok, err := checker.IsTokenAccount(context.Background(), "http://127.0.0.1:1", usdcMint)
	require.Error(t, err)
	require.False(t, ok)
}

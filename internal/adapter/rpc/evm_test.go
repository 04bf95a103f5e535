package rpc

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chaindetect/internal/domain/entity"
)

type stubResolver struct {
	conn EVMConn
	ok   bool
}

func (s *stubResolver) Resolve(context.Context, []entity.RPCURL, bool) (EVMConn, bool) {
	return s.conn, s.ok
}

func newTestProber(conn EVMConn, ok bool) *EVMProber {
	return &EVMProber{
		resolver:  &stubResolver{conn: conn, ok: ok},
		endpoints: map[entity.ChainID][]entity.RPCURL{entity.ChainEthereum: {"http://eth"}},
		cfg:       testDetectorConfig(),
		logger:    zap.NewNop(),
	}
}

func TestIsTokenContract(t *testing.T) {
	t.Parallel()

	supply := big.NewInt(1_000_000).FillBytes(make([]byte, 32))

	tests := []struct {
		name    string
		conn    *fakeConn
		want    bool
		wantErr bool
	}{
		{
			name: "code and total supply",
			conn: &fakeConn{code: []byte{0x60, 0x80}, callOut: supply},
			want: true,
		},
		{
			name: "no code deployed",
			conn: &fakeConn{code: nil},
			want: false,
		},
		{
			name: "code but total supply reverts",
			conn: &fakeConn{code: []byte{0x60, 0x80}, callErr: errors.New("execution reverted")},
			want: false,
		},
		{
			name: "code but empty call result",
			conn: &fakeConn{code: []byte{0x60, 0x80}, callOut: nil},
			want: false,
		},
		{
			name:    "get code fails",
			conn:    &fakeConn{codeErr: errors.New("boom")},
			want:    false,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := newTestProber(tt.conn, true)
			got, err := prober.IsTokenContract(context.Background(), entity.ChainEthereum, "0xdAC17F958D2ee523a2206206994597C13D831ec7")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestIsTokenContractChainUnreachable(t *testing.T) {
	t.Parallel()

	prober := newTestProber(nil, false)
	got, err := prober.IsTokenContract(context.Background(), entity.ChainEthereum, "0xdAC17F958D2ee523a2206206994597C13D831ec7")
	require.Error(t, err)
	require.False(t, got)
}

func TestHasTransacted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		conn    *fakeConn
		want    bool
		wantErr bool
	}{
		{"nonce above zero", &fakeConn{nonce: 7}, true, false},
		{"nonce zero", &fakeConn{nonce: 0}, false, false},
		{"lookup fails", &fakeConn{nonceErr: errors.New("boom")}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := newTestProber(tt.conn, true)
			got, err := prober.HasTransacted(context.Background(), entity.ChainEthereum, "0xdAC17F958D2ee523a2206206994597C13D831ec7")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

package receipt

import (
	"context"
	"sync"
	"testing"

	"github.com/blues/escrow/internal/escrow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_Mint(t *testing.T) {
	ctx := context.Background()
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	issuer := NewIssuer()

	var got []escrow.TokenID
	for _, to := range []common.Address{alice, bob, alice} {
		id, err := issuer.Mint(ctx, to)
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []escrow.TokenID{"0", "1", "2"}, got)

	balance, err := issuer.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
	balance, err = issuer.BalanceOf(ctx, common.Address{})
	require.NoError(t, err)
	assert.Zero(t, balance)

	owner, ok := issuer.OwnerOf("1")
	assert.True(t, ok)
	assert.Equal(t, bob, owner)
	_, ok = issuer.OwnerOf("9")
	assert.False(t, ok)
}

func TestIssuer_MintCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	issuer := NewIssuer()

	_, err := issuer.Mint(ctx, common.Address{})
	assert.ErrorIs(t, err, context.Canceled)

	id, err := issuer.Mint(context.Background(), common.Address{})
	require.NoError(t, err)
	assert.Equal(t, escrow.TokenID("0"), id)
}

func TestIssuer_ConcurrentMintUnique(t *testing.T) {
	issuer := NewIssuer()
	const n = 50
	ids := make(chan escrow.TokenID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := issuer.Mint(context.Background(), common.Address{})
			if err == nil {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[escrow.TokenID]struct{})
	for id := range ids {
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestNewIssuerFrom(t *testing.T) {
	ctx := context.Background()
	alice := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	testCases := []struct {
		name      string
		receipts  []*escrow.Receipt
		wantNext  escrow.TokenID
		wantAlice int64
	}{
		{name: "没有收据", wantNext: "0"},
		{
			name: "从最大编号继续",
			receipts: []*escrow.Receipt{
				{TokenID: "0", Contributor: alice},
				{TokenID: "7", Contributor: alice},
				{TokenID: "3", Contributor: bob},
			},
			wantNext:  "8",
			wantAlice: 2,
		},
		{
			name: "跳过非数字编号",
			receipts: []*escrow.Receipt{
				{TokenID: "1", Contributor: alice},
				{TokenID: "pending:0xabc", Contributor: alice},
			},
			wantNext:  "2",
			wantAlice: 2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			issuer := NewIssuerFrom(tc.receipts)

			balance, err := issuer.BalanceOf(ctx, alice)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAlice, balance)

			id, err := issuer.Mint(ctx, bob)
			require.NoError(t, err)
			assert.Equal(t, tc.wantNext, id)
		})
	}
}

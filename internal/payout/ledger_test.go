package payout

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Transfer(t *testing.T) {
	ctx := context.Background()
	to := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	testCases := []struct {
		name    string
		before  func(l *Ledger)
		amounts []*big.Int
		want    *big.Int
		wantErr error
	}{
		{
			name:    "累计到账",
			amounts: []*big.Int{big.NewInt(3), big.NewInt(4)},
			want:    big.NewInt(7),
		},
		{
			name:    "零金额",
			amounts: []*big.Int{big.NewInt(0)},
			want:    big.NewInt(0),
		},
		{
			name:    "拒绝一次",
			before:  func(l *Ledger) { l.Decline(to, 1) },
			amounts: []*big.Int{big.NewInt(5)},
			want:    big.NewInt(0),
			wantErr: ErrDeclined,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLedger()
			if tc.before != nil {
				tc.before(l)
			}
			var err error
			for _, amount := range tc.amounts {
				if err = l.Transfer(ctx, to, amount); err != nil {
					break
				}
			}
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.want.String(), l.Received(to).String())
		})
	}
}

func TestLedger_DeclineIsConsumed(t *testing.T) {
	ctx := context.Background()
	to := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	l := NewLedger()
	l.Decline(to, 1)

	assert.ErrorIs(t, l.Transfer(ctx, to, big.NewInt(1)), ErrDeclined)
	require.NoError(t, l.Transfer(ctx, to, big.NewInt(2)))
	assert.Equal(t, "2", l.Received(to).String())
}

func TestLedger_RejectsNegative(t *testing.T) {
	l := NewLedger()
	assert.Error(t, l.Transfer(context.Background(), common.Address{}, big.NewInt(-1)))
	assert.Error(t, l.Transfer(context.Background(), common.Address{}, nil))
}

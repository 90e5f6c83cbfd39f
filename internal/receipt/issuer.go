package receipt

import (
	"context"
	"strconv"
	"sync"

	"github.com/blues/escrow/internal/escrow"
	"github.com/ethereum/go-ethereum/common"
)

// Issuer 进程内收据发行方，行为同 ERC-721：编号从 0 起单调递增，按地址统计持有数
type Issuer struct {
	mu       sync.Mutex
	next     uint64
	owners   map[escrow.TokenID]common.Address
	balances map[common.Address]int64
}

// NewIssuer 创建收据发行方
func NewIssuer() *Issuer {
	return &Issuer{
		owners:   make(map[escrow.TokenID]common.Address),
		balances: make(map[common.Address]int64),
	}
}

// NewIssuerFrom 用已持久化的收据恢复发行方：编号从现有最大数字编号之后继续，持有数按收据重建
func NewIssuerFrom(receipts []*escrow.Receipt) *Issuer {
	i := NewIssuer()
	for _, r := range receipts {
		i.owners[r.TokenID] = r.Contributor
		i.balances[r.Contributor]++
		if n, err := strconv.ParseUint(string(r.TokenID), 10, 64); err == nil && n >= i.next {
			i.next = n + 1
		}
	}
	return i
}

// Mint 为 to 铸造一枚收据
func (i *Issuer) Mint(ctx context.Context, to common.Address) (escrow.TokenID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	id := escrow.TokenID(strconv.FormatUint(i.next, 10))
	i.next++
	i.owners[id] = to
	i.balances[to]++
	return id, nil
}

// BalanceOf 地址持有的收据数量
func (i *Issuer) BalanceOf(_ context.Context, owner common.Address) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.balances[owner], nil
}

// OwnerOf 收据持有者
func (i *Issuer) OwnerOf(id escrow.TokenID) (common.Address, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	owner, ok := i.owners[id]
	return owner, ok
}

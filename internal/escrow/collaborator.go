package escrow

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

//go:generate mockgen -source=./collaborator.go -package=mocks -destination=./mocks/collaborator.mock.go

// Transferer 资金转出方。返回 nil 表示资金已到账。
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

// Minter 收据 NFT 发行方。每次调用铸造且只铸造一枚。
type Minter interface {
	Mint(ctx context.Context, to common.Address) (TokenID, error)
}

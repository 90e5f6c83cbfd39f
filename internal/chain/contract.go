package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// 收据合约 ABI（ERC-721 子集）
const receiptABI = `[
	{
		"inputs": [{"name": "to", "type": "address"}],
		"name": "safeMint",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": true, "name": "tokenId", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	}
]`

// ReceiptMinter 通过收据合约铸造贡献收据
type ReceiptMinter struct {
	m        *Manager
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewReceiptMinter 绑定收据合约
func NewReceiptMinter(m *Manager, address common.Address) (*ReceiptMinter, error) {
	parsed, err := abi.JSON(strings.NewReader(receiptABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt ABI: %w", err)
	}
	return &ReceiptMinter{
		m:        m,
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, m.backend, m.backend, m.backend),
	}, nil
}

// pendingTokenPrefix 回执未确认时以交易哈希占位的收据编号前缀
const pendingTokenPrefix = "pending:"

// Mint 调用 safeMint 并从回执的 Transfer 事件中取出新收据编号。
// 交易已广播但未确认时返回 pending:<交易哈希>，贡献照常入账。
func (r *ReceiptMinter) Mint(ctx context.Context, to common.Address) (escrow.TokenID, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(m.key, m.chainId)
	if err != nil {
		return "", fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.GasLimit = m.cfg.GasLimit

	tx, err := r.contract.Transact(opts, "safeMint", to)
	if err != nil {
		return "", fmt.Errorf("failed to send safeMint: %w", err)
	}
	receipt, err := m.waitMined(ctx, tx)
	if errors.Is(err, errPending) {
		return pendingToken(tx.Hash()), nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("mint %s reverted", tx.Hash().Hex())
	}

	token, err := tokenIdFromLogs(receipt.Logs, r.address, r.abi.Events["Transfer"].ID, to)
	if err != nil {
		// 已铸造成功，编号留待按交易哈希核对
		logger.Warn("Mint %s succeeded but token id unknown: %v", tx.Hash().Hex(), err)
		return pendingToken(tx.Hash()), nil
	}
	logger.Debug("Minted receipt %s to %s, tx %s", token, to.Hex(), tx.Hash().Hex())
	return token, nil
}

// BalanceOf 查询地址持有的收据数量
func (r *ReceiptMinter) BalanceOf(ctx context.Context, owner common.Address) (int64, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return 0, fmt.Errorf("failed to call balanceOf: %w", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("balanceOf returned no value")
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected balanceOf result %T", out[0])
	}
	return balance.Int64(), nil
}

func pendingToken(hash common.Hash) escrow.TokenID {
	return escrow.TokenID(pendingTokenPrefix + hash.Hex())
}

// tokenIdFromLogs 找到合约发给 to 的 Transfer 事件，tokenId 在第四个 topic
func tokenIdFromLogs(logs []*types.Log, contract common.Address, transferId common.Hash, to common.Address) (escrow.TokenID, error) {
	for _, l := range logs {
		if l.Address != contract || len(l.Topics) != 4 || l.Topics[0] != transferId {
			continue
		}
		if common.BytesToAddress(l.Topics[2].Bytes()) != to {
			continue
		}
		return escrow.TokenID(new(big.Int).SetBytes(l.Topics[3].Bytes()).String()), nil
	}
	return "", fmt.Errorf("no Transfer event to %s in receipt", to.Hex())
}

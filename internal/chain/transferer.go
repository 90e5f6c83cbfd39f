package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/blues/escrow/internal/logger"
		"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// Transferer 从托管钱包向外转出原生币，等待交易上链后返回。
// 交易广播后只有明确回滚才返回错误，未确认的交易视为已转出。
type Transferer struct {
	m *Manager
}

func NewTransferer(m *Manager) *Transferer {
	return &Transferer{m: m}
}

func (t *Transferer) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce, err := m.backend.PendingNonceAt(ctx, m.from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := m.backend.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      params.TxGas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(m.chainId), m.key)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := m.backend.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	logger.Info("Transfer of %s wei to %s broadcast, tx %s", amount, to.Hex(), signed.Hash().Hex())

	receipt, err := m.waitMined(ctx, signed)
	if errors.Is(err, errPending) {
		return nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	logger.Debug("Transferred %s wei to %s, tx %s", amount, to.Hex(), signed.Hash().Hex())
	return nil
}

package payout

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var ErrDeclined = errors.New("转账被拒绝")

// Ledger 进程内转账账本，记录每个地址从托管中收到的金额。
// Decline 可让指定地址的下一次转账失败，用于演练回滚。
type Ledger struct {
	mu       sync.Mutex
	received map[common.Address]*big.Int
	declines map[common.Address]int
}

// NewLedger 创建转账账本
func NewLedger() *Ledger {
	return &Ledger{
		received: make(map[common.Address]*big.Int),
		declines: make(map[common.Address]int),
	}
}

// Transfer 向 to 转出 amount
func (l *Ledger) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return errors.New("转账金额不合法")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.declines[to] > 0 {
		l.declines[to]--
		return ErrDeclined
	}
	cur, ok := l.received[to]
	if !ok {
		cur = new(big.Int)
	}
	l.received[to] = new(big.Int).Add(cur, amount)
	return nil
}

// Decline 让 to 接下来的 n 次转账失败
func (l *Ledger) Decline(to common.Address, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.declines[to] += n
}

// Received 地址累计收到的金额
func (l *Ledger) Received(to common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.received[to]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

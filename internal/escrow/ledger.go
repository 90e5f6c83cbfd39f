package escrow

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blues/escrow/internal/logger"
	"github.com/blues/escrow/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
)

// Participate 向项目认捐 amount（wei），成功后为贡献者铸造一枚收据并返回其编号。
// 账本更新与铸造在同一工作单元内：铸造失败时认捐一并撤销。
func (e *Engine) Participate(ctx context.Context, id ProjectID, contributor common.Address, amount *big.Int) (TokenID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var token TokenID
	err := e.effectTx(ctx, func(tx Tx) error {
		p, err := tx.GetProject(id, true)
		if err != nil {
			return err
		}
		if DeriveState(p, now) != StateActive {
			return ErrCampaignClosed
		}
		if amount == nil || amount.Sign() <= 0 {
			return fmt.Errorf("%w: 贡献金额必须大于0", ErrBelowMinimum)
		}
		if p.MinimumContribution.Sign() > 0 && amount.Cmp(p.MinimumContribution) < 0 {
			return fmt.Errorf("%w: 最小 %s ether", ErrBelowMinimum, FormatEther(p.MinimumContribution))
		}

		c, err := tx.GetContribution(id, contributor)
		if err != nil {
			return err
		}
		if c == nil {
			c = &Contribution{ProjectID: id, Contributor: contributor, AmountPledged: new(big.Int)}
		}
		c.AmountPledged = new(big.Int).Add(c.AmountPledged, amount)
		c.ReceiptCount++
		if err := tx.SaveContribution(c); err != nil {
			return err
		}
		p.TotalRaised = new(big.Int).Add(p.TotalRaised, amount)
		if err := tx.UpdateProject(p); err != nil {
			return err
		}

		// 账本已记账，再请求铸造
		token, err = e.minter.Mint(ctx, contributor)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMintFailed, err)
		}
		if err := tx.InsertReceipt(&Receipt{
			TokenID:     token,
			ProjectID:   id,
			Contributor: contributor,
			Amount:      amount,
			MintedAt:    now,
		}); err != nil {
			return err
		}
		return tx.AppendEvent(&Event{
			ProjectID: id,
			Kind:      EventContributionMade,
			Actor:     contributor,
			Amount:    amount,
			TokenID:   token,
			At:        now,
		})
	})
	e.observe("participate", err)
	if err != nil {
		return "", err
	}

	metrics.PledgedWei.Add(weiFloat(amount))
	logger.Info("Contribution of %s ether from %s to project %d, receipt %s",
		FormatEther(amount), contributor.Hex(), id, token)
	return token, nil
}

// GetContribution 获取贡献记录；从未认捐的贡献者返回金额为 0 的记录
func (e *Engine) GetContribution(ctx context.Context, id ProjectID, contributor common.Address) (Contribution, error) {
	var out Contribution
	err := e.store.Tx(ctx, func(tx Tx) error {
		if _, err := tx.GetProject(id, false); err != nil {
			return err
		}
		c, err := tx.GetContribution(id, contributor)
		if err != nil {
			return err
		}
		if c == nil {
			out = Contribution{ProjectID: id, Contributor: contributor, AmountPledged: new(big.Int)}
			return nil
		}
		out = *c
		return nil
	})
	return out, err
}

// ListReceipts 获取贡献者名下的所有收据，按铸造顺序
func (e *Engine) ListReceipts(ctx context.Context, contributor common.Address) ([]Receipt, error) {
	var out []Receipt
	err := e.store.Tx(ctx, func(tx Tx) error {
		receipts, err := tx.ListReceipts(contributor)
		if err != nil {
			return err
		}
		out = make([]Receipt, 0, len(receipts))
		for _, r := range receipts {
			out = append(out, *r)
		}
		return nil
	})
	return out, err
}

func weiFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

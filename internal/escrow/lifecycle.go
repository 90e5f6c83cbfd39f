package escrow

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/escrow/internal/logger"
	"github.com/blues/escrow/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
)

// State 项目生命周期状态，只推导不存储
type State string

const (
	StateActive    State = "active"    // 进行中
	StateSucceeded State = "succeeded" // 成功
	StateFailed    State = "failed"    // 失败
)

// DeriveState 根据截止时间与已筹金额推导项目状态
func DeriveState(p *Project, now time.Time) State {
	if now.Before(p.Deadline) {
		return StateActive
	}
	if p.TotalRaised.Cmp(p.GoalAmount) >= 0 {
		return StateSucceeded
	}
	return StateFailed
}

// WithdrawFunds 创建者提取成功项目的全部筹款，只能成功一次。
// 先置已提取标记再转账；转账失败时标记随工作单元一并回滚。
func (e *Engine) WithdrawFunds(ctx context.Context, id ProjectID, caller common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var paid *big.Int
	err := e.effectTx(ctx, func(tx Tx) error {
		p, err := tx.GetProject(id, true)
		if err != nil {
			return err
		}
		if caller != p.Creator {
			return ErrNotAuthorized
		}
		if DeriveState(p, now) != StateSucceeded {
			return ErrNotYetSuccessful
		}
		if p.FundsWithdrawn {
			return ErrAlreadyWithdrawn
		}

		p.FundsWithdrawn = true
		if err := tx.UpdateProject(p); err != nil {
			return err
		}
		paid = p.Balance()
		if err := tx.AppendEvent(&Event{
			ProjectID: id,
			Kind:      EventFundsWithdrawn,
			Actor:     caller,
			Amount:    paid,
			At:        now,
		}); err != nil {
			return err
		}

		// 目标为 0 且无人认捐时没有资金可转
		if paid.Sign() == 0 {
			return nil
		}
		if err := e.transferer.Transfer(ctx, p.Creator, paid); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return nil
	})
	e.observe("withdraw", err)
	if err != nil {
		return err
	}

	metrics.PaidOutWei.WithLabelValues("withdraw").Add(weiFloat(paid))
	logger.Info("Project %d funds withdrawn: %s ether to %s", id, FormatEther(paid), caller.Hex())
	return nil
}

// Refund 失败项目的贡献者取回全部认捐，返回退还金额（wei）。
// 先清零认捐再转账；转账失败时清零随工作单元一并回滚。
func (e *Engine) Refund(ctx context.Context, id ProjectID, caller common.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var refunded *big.Int
	err := e.effectTx(ctx, func(tx Tx) error {
		p, err := tx.GetProject(id, true)
		if err != nil {
			return err
		}
		if state := DeriveState(p, now); state != StateFailed {
			return fmt.Errorf("%w: 项目状态为 %s", ErrNotEligible, state)
		}
		if p.FundsWithdrawn {
			return fmt.Errorf("%w: 资金已被提取", ErrNotEligible)
		}

		c, err := tx.GetContribution(id, caller)
		if err != nil {
			return err
		}
		if c == nil || c.AmountPledged.Sign() == 0 {
			return fmt.Errorf("%w: 没有可退还的认捐", ErrNotEligible)
		}

		refunded = new(big.Int).Set(c.AmountPledged)
		c.AmountPledged = new(big.Int)
		if err := tx.SaveContribution(c); err != nil {
			return err
		}
		p.TotalRefunded = new(big.Int).Add(p.TotalRefunded, refunded)
		if err := tx.UpdateProject(p); err != nil {
			return err
		}
		if err := tx.AppendEvent(&Event{
			ProjectID: id,
			Kind:      EventRefundIssued,
			Actor:     caller,
			Amount:    refunded,
			At:        now,
		}); err != nil {
			return err
		}

		if err := e.transferer.Transfer(ctx, caller, refunded); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		return nil
	})
	e.observe("refund", err)
	if err != nil {
		return nil, err
	}

	metrics.PaidOutWei.WithLabelValues("refund").Add(weiFloat(refunded))
	logger.Info("Project %d refunded %s ether to %s", id, FormatEther(refunded), caller.Hex())
	return refunded, nil
}

// CloseDueProjects 为已过截止时间、尚未公告的项目记录 project_closed 事件，
// 返回本次公告的项目及其最终状态。只写审计事件，不改变任何记账字段。
func (e *Engine) CloseDueProjects(ctx context.Context) (map[ProjectID]State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	closed := make(map[ProjectID]State)
	err := e.store.Tx(ctx, func(tx Tx) error {
		due, err := tx.ListDueProjects(now)
		if err != nil {
			return err
		}
		for _, p := range due {
			announced, err := tx.HasEvent(p.ID, EventProjectClosed)
			if err != nil {
				return err
			}
			if announced {
				continue
			}
			state := DeriveState(p, now)
			if err := tx.AppendEvent(&Event{
				ProjectID: p.ID,
				Kind:      EventProjectClosed,
				Actor:     p.Creator,
				Amount:    p.TotalRaised,
				Detail:    string(state),
				At:        now,
			}); err != nil {
				return err
			}
			closed[p.ID] = state
		}
		return nil
	})
	e.observe("close_due_projects", err)
	if err != nil {
		return nil, err
	}
	return closed, nil
}

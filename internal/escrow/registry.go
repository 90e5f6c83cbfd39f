package escrow

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/escrow/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// CreateProject 登记新项目，返回顺序分配的项目编号
func (e *Engine) CreateProject(ctx context.Context, creator common.Address, params CreateProjectParams) (ProjectID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateProject(params); err != nil {
		e.observe("create_project", err)
		return 0, err
	}

	now := e.now()
	deadline := now.Add(time.Duration(params.DurationDays) * e.durationUnit)
	var id ProjectID
	err := e.store.Tx(ctx, func(tx Tx) error {
		next, err := tx.NextProjectID()
		if err != nil {
			return err
		}
		p := &Project{
			ID:                  next,
			Title:               params.Title,
			Description:         params.Description,
			MinimumContribution: cloneInt(params.MinimumContribution),
			GoalAmount:          cloneInt(params.GoalAmount),
			DurationDays:        params.DurationDays,
			CreatedAt:           now,
			Deadline:            deadline,
			TotalRaised:         new(big.Int),
			TotalRefunded:       new(big.Int),
			Creator:             creator,
		}
		if err := tx.InsertProject(p); err != nil {
			return err
		}
		id = next
		return tx.AppendEvent(&Event{
			ProjectID: next,
			Kind:      EventProjectCreated,
			Actor:     creator,
			Amount:    p.GoalAmount,
			Detail:    p.Title,
			At:        now,
		})
	})
	e.observe("create_project", err)
	if err != nil {
		return 0, err
	}

	logger.Info("Project %d created by %s, goal %s ether, deadline %s",
		id, creator.Hex(), FormatEther(params.GoalAmount), deadline.Format(time.RFC3339))
	return id, nil
}

// GetProjectDetails 获取项目快照，状态在本次调用中按当前时间推导
func (e *Engine) GetProjectDetails(ctx context.Context, id ProjectID) (ProjectView, error) {
	now := e.now()
	var view ProjectView
	err := e.store.Tx(ctx, func(tx Tx) error {
		p, err := tx.GetProject(id, false)
		if err != nil {
			return err
		}
		view = newProjectView(p, now)
		return nil
	})
	return view, err
}

// ListProjects 分页获取项目快照，page 从 1 开始
func (e *Engine) ListProjects(ctx context.Context, page, pageSize int) ([]ProjectView, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	now := e.now()
	var (
		views []ProjectView
		total int64
	)
	err := e.store.Tx(ctx, func(tx Tx) error {
		projects, n, err := tx.ListProjects((page-1)*pageSize, pageSize)
		if err != nil {
			return err
		}
		total = n
		views = make([]ProjectView, 0, len(projects))
		for _, p := range projects {
			views = append(views, newProjectView(p, now))
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}
	return views, total, nil
}

// validateProject 验证项目数据
func (e *Engine) validateProject(params CreateProjectParams) error {
	if params.DurationDays <= 0 {
		return fmt.Errorf("%w: 持续天数必须为正整数", ErrInvalidParameters)
	}
	if params.GoalAmount == nil || params.GoalAmount.Sign() < 0 {
		return fmt.Errorf("%w: 目标金额不能为负", ErrInvalidParameters)
	}
	if !e.rules.AllowZeroGoal && params.GoalAmount.Sign() == 0 {
		return fmt.Errorf("%w: 目标金额必须大于0", ErrInvalidParameters)
	}
	if params.MinimumContribution != nil && params.MinimumContribution.Sign() < 0 {
		return fmt.Errorf("%w: 最小贡献额不能为负", ErrInvalidParameters)
	}
	if e.rules.RequireMinWithinGoal && params.MinimumContribution != nil &&
		params.MinimumContribution.Sign() > 0 && params.MinimumContribution.Cmp(params.GoalAmount) > 0 {
		return fmt.Errorf("%w: 最小贡献额不能超过目标金额", ErrInvalidParameters)
	}
	return nil
}

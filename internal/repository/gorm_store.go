package repository

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 基于数据库事务的 escrow.Store
type GormStore struct {
	db       *gorm.DB
	lockRows bool
}

// NewGormStore 创建数据库存储。postgres 下读取待修改项目时加行锁。
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		lockRows: db.Dialector.Name() == "postgres",
	}
}

// Tx 在数据库事务中执行工作单元，fn 返回错误时回滚
func (s *GormStore) Tx(ctx context.Context, fn func(tx escrow.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, lockRows: s.lockRows})
	})
}

// AllReceipts 按铸造顺序返回全部收据，供进程内发行方启动时恢复编号与持有数
func (s *GormStore) AllReceipts(ctx context.Context) ([]*escrow.Receipt, error) {
	var models []model.ReceiptModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("获取收据记录失败: %w", err)
	}
	return fromReceiptModels(models)
}

type gormTx struct {
	db       *gorm.DB
	lockRows bool
}

func (t *gormTx) NextProjectID() (escrow.ProjectID, error) {
	var next int64
	if err := t.db.Model(&model.ProjectModel{}).
		Select("COALESCE(MAX(id), -1) + 1").
		Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("获取项目编号失败: %w", err)
	}
	return escrow.ProjectID(next), nil
}

func (t *gormTx) InsertProject(p *escrow.Project) error {
	m := toProjectModel(p)
	if err := t.db.Create(&m).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}
	return nil
}

func (t *gormTx) GetProject(id escrow.ProjectID, forUpdate bool) (*escrow.Project, error) {
	q := t.db
	if forUpdate && t.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m model.ProjectModel
	if err := q.Where("id = ?", int64(id)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, escrow.ErrNotFound
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}
	return fromProjectModel(&m)
}

func (t *gormTx) UpdateProject(p *escrow.Project) error {
	res := t.db.Model(&model.ProjectModel{}).
		Where("id = ?", int64(p.ID)).
		Updates(map[string]interface{}{
			"total_raised":    p.TotalRaised.String(),
			"total_refunded":  p.TotalRefunded.String(),
			"funds_withdrawn": p.FundsWithdrawn,
		})
	if res.Error != nil {
		return fmt.Errorf("更新项目失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return escrow.ErrNotFound
	}
	return nil
}

func (t *gormTx) ListProjects(offset, limit int) ([]*escrow.Project, int64, error) {
	var total int64
	if err := t.db.Model(&model.ProjectModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目总数失败: %w", err)
	}

	var models []model.ProjectModel
	if err := t.db.Order("id ASC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("获取项目列表失败: %w", err)
	}
	projects, err := fromProjectModels(models)
	return projects, total, err
}

func (t *gormTx) ListDueProjects(now time.Time) ([]*escrow.Project, error) {
	var models []model.ProjectModel
	if err := t.db.Where("deadline <= ?", now).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("获取到期项目失败: %w", err)
	}
	return fromProjectModels(models)
}

func (t *gormTx) GetContribution(id escrow.ProjectID, contributor common.Address) (*escrow.Contribution, error) {
	var m model.ContributeRecordModel
	err := t.db.Where("project_id = ? AND address = ?", int64(id), contributor.Hex()).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("获取贡献记录失败: %w", err)
	}
	amount, err := parseWei(m.AmountPledged)
	if err != nil {
		return nil, err
	}
	return &escrow.Contribution{
		ProjectID:     escrow.ProjectID(m.ProjectId),
		Contributor:   common.HexToAddress(m.Address),
		AmountPledged: amount,
		ReceiptCount:  m.ReceiptCount,
	}, nil
}

func (t *gormTx) SaveContribution(c *escrow.Contribution) error {
	res := t.db.Model(&model.ContributeRecordModel{}).
		Where("project_id = ? AND address = ?", int64(c.ProjectID), c.Contributor.Hex()).
		Updates(map[string]interface{}{
			"amount_pledged": c.AmountPledged.String(),
			"receipt_count":  c.ReceiptCount,
		})
	if res.Error != nil {
		return fmt.Errorf("更新贡献记录失败: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	m := model.ContributeRecordModel{
		ProjectId:     int64(c.ProjectID),
		Address:       c.Contributor.Hex(),
		AmountPledged: c.AmountPledged.String(),
		ReceiptCount:  c.ReceiptCount,
	}
	if err := t.db.Create(&m).Error; err != nil {
		return fmt.Errorf("创建贡献记录失败: %w", err)
	}
	return nil
}

func (t *gormTx) InsertReceipt(r *escrow.Receipt) error {
	m := model.ReceiptModel{
		TokenId:   string(r.TokenID),
		ProjectId: int64(r.ProjectID),
		Address:   r.Contributor.Hex(),
		Amount:    r.Amount.String(),
		MintedAt:  r.MintedAt,
	}
	if err := t.db.Create(&m).Error; err != nil {
		return fmt.Errorf("创建收据记录失败: %w", err)
	}
	return nil
}

func (t *gormTx) ListReceipts(contributor common.Address) ([]*escrow.Receipt, error) {
	var models []model.ReceiptModel
	if err := t.db.Where("address = ?", contributor.Hex()).Order("id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("获取收据记录失败: %w", err)
	}
	return fromReceiptModels(models)
}

func (t *gormTx) AppendEvent(e *escrow.Event) error {
	m := model.EventModel{
		ProjectId:  int64(e.ProjectID),
		EventType:  string(e.Kind),
		Actor:      e.Actor.Hex(),
		TokenId:    string(e.TokenID),
		Data:       e.Detail,
		OccurredAt: e.At,
	}
	if e.Amount != nil {
		m.Amount = e.Amount.String()
	}
	if err := t.db.Create(&m).Error; err != nil {
		return fmt.Errorf("记录事件失败: %w", err)
	}
	return nil
}

func (t *gormTx) HasEvent(id escrow.ProjectID, kind escrow.EventKind) (bool, error) {
	var count int64
	if err := t.db.Model(&model.EventModel{}).
		Where("project_id = ? AND event_type = ?", int64(id), string(kind)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询事件失败: %w", err)
	}
	return count > 0, nil
}

func toProjectModel(p *escrow.Project) model.ProjectModel {
	return model.ProjectModel{
		Id:              int64(p.ID),
		CreatedAt:       p.CreatedAt,
		Title:           p.Title,
		Description:     p.Description,
		MinContribution: p.MinimumContribution.String(),
		GoalAmount:      p.GoalAmount.String(),
		DurationDays:    p.DurationDays,
		TotalRaised:     p.TotalRaised.String(),
		TotalRefunded:   p.TotalRefunded.String(),
		FundsWithdrawn:  p.FundsWithdrawn,
		Deadline:        p.Deadline,
		CreatorAddress:  p.Creator.Hex(),
	}
}

func fromProjectModel(m *model.ProjectModel) (*escrow.Project, error) {
	p := &escrow.Project{
		ID:             escrow.ProjectID(m.Id),
		Title:          m.Title,
		Description:    m.Description,
		DurationDays:   m.DurationDays,
		CreatedAt:      m.CreatedAt,
		Deadline:       m.Deadline,
		FundsWithdrawn: m.FundsWithdrawn,
		Creator:        common.HexToAddress(m.CreatorAddress),
	}
	var err error
	if p.MinimumContribution, err = parseWei(m.MinContribution); err != nil {
		return nil, err
	}
	if p.GoalAmount, err = parseWei(m.GoalAmount); err != nil {
		return nil, err
	}
	if p.TotalRaised, err = parseWei(m.TotalRaised); err != nil {
		return nil, err
	}
	if p.TotalRefunded, err = parseWei(m.TotalRefunded); err != nil {
		return nil, err
	}
	return p, nil
}

func fromProjectModels(models []model.ProjectModel) ([]*escrow.Project, error) {
	out := make([]*escrow.Project, 0, len(models))
	for i := range models {
		p, err := fromProjectModel(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func fromReceiptModels(models []model.ReceiptModel) ([]*escrow.Receipt, error) {
	out := make([]*escrow.Receipt, 0, len(models))
	for _, m := range models {
		amount, err := parseWei(m.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, &escrow.Receipt{
			TokenID:     escrow.TokenID(m.TokenId),
			ProjectID:   escrow.ProjectID(m.ProjectId),
			Contributor: common.HexToAddress(m.Address),
			Amount:      amount,
			MintedAt:    m.MintedAt,
		})
	}
	return out, nil
}

func parseWei(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("金额字段损坏: %q", s)
	}
	return v, nil
}

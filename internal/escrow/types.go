package escrow

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProjectID 项目编号，从 0 开始顺序分配，永不复用
type ProjectID uint64

// TokenID 收据 NFT 编号，由发行方分配，引擎只当作不透明句柄
type TokenID string

// CreateProjectParams 创建项目参数
type CreateProjectParams struct {
	Title               string
	Description         string
	MinimumContribution *big.Int
	GoalAmount          *big.Int
	DurationDays        int64
}

// Project 众筹项目
type Project struct {
	ID          ProjectID
	Title       string
	Description string

	// 众筹信息
	MinimumContribution *big.Int
	GoalAmount          *big.Int
	DurationDays        int64

	// 时间信息
	CreatedAt time.Time
	Deadline  time.Time

	// 记账信息
	TotalRaised    *big.Int // 只增不减
	TotalRefunded  *big.Int
	FundsWithdrawn bool

	Creator common.Address
}

// Balance 托管中尚未退还的金额，恒等于所有贡献者 AmountPledged 之和
func (p *Project) Balance() *big.Int {
	return new(big.Int).Sub(p.TotalRaised, p.TotalRefunded)
}

// Clone 深拷贝，避免调用方与存储共享 big.Int
func (p *Project) Clone() *Project {
	cp := *p
	cp.MinimumContribution = cloneInt(p.MinimumContribution)
	cp.GoalAmount = cloneInt(p.GoalAmount)
	cp.TotalRaised = cloneInt(p.TotalRaised)
	cp.TotalRefunded = cloneInt(p.TotalRefunded)
	return &cp
}

// Contribution 某贡献者在某项目下的累计认捐
type Contribution struct {
	ProjectID     ProjectID
	Contributor   common.Address
	AmountPledged *big.Int
	ReceiptCount  int64
}

// Clone 深拷贝
func (c *Contribution) Clone() *Contribution {
	cp := *c
	cp.AmountPledged = cloneInt(c.AmountPledged)
	return &cp
}

// Receipt 每次成功认捐铸造的一枚收据
type Receipt struct {
	TokenID     TokenID
	ProjectID   ProjectID
	Contributor common.Address
	Amount      *big.Int
	MintedAt    time.Time
}

// ProjectView 项目只读快照
type ProjectView struct {
	ID                  ProjectID
	Title               string
	Description         string
	MinimumContribution *big.Int
	GoalAmount          *big.Int
	DurationDays        int64
	CreatedAt           time.Time
	Deadline            time.Time
	TotalRaised         *big.Int
	TotalRefunded       *big.Int
	Balance             *big.Int
	FundsWithdrawn      bool
	Creator             common.Address
	State               State
}

func newProjectView(p *Project, now time.Time) ProjectView {
	cp := p.Clone()
	return ProjectView{
		ID:                  cp.ID,
		Title:               cp.Title,
		Description:         cp.Description,
		MinimumContribution: cp.MinimumContribution,
		GoalAmount:          cp.GoalAmount,
		DurationDays:        cp.DurationDays,
		CreatedAt:           cp.CreatedAt,
		Deadline:            cp.Deadline,
		TotalRaised:         cp.TotalRaised,
		TotalRefunded:       cp.TotalRefunded,
		Balance:             cp.Balance(),
		FundsWithdrawn:      cp.FundsWithdrawn,
		Creator:             cp.Creator,
		State:               DeriveState(cp, now),
	}
}

// EventKind 审计事件类型
type EventKind string

const (
	EventProjectCreated   EventKind = "project_created"
	EventContributionMade EventKind = "contribution_made"
	EventFundsWithdrawn   EventKind = "funds_withdrawn"
	EventRefundIssued     EventKind = "refund_issued"
	EventProjectClosed    EventKind = "project_closed"
)

// Event 审计事件，只做记录，不参与状态推导
type Event struct {
	ProjectID ProjectID
	Kind      EventKind
	Actor     common.Address
	Amount    *big.Int
	TokenID   TokenID
	Detail    string
	At        time.Time
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

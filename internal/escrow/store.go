package escrow

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Store 项目表与贡献表的唯一持有者。
// Tx 中 fn 返回错误时，fn 内的所有写入必须全部撤销。
type Store interface {
	Tx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx 一个工作单元内可见的读写操作
type Tx interface {
	NextProjectID() (ProjectID, error)
	InsertProject(p *Project) error
	// GetProject 不存在时返回 ErrNotFound；forUpdate 为 true 时锁定该行直到工作单元结束
	GetProject(id ProjectID, forUpdate bool) (*Project, error)
	UpdateProject(p *Project) error
	ListProjects(offset, limit int) ([]*Project, int64, error)
	// ListDueProjects 截止时间不晚于 t 的项目
	ListDueProjects(t time.Time) ([]*Project, error)

	// GetContribution 没有记录时返回 nil, nil
	GetContribution(id ProjectID, contributor common.Address) (*Contribution, error)
	SaveContribution(c *Contribution) error

	InsertReceipt(r *Receipt) error
	ListReceipts(contributor common.Address) ([]*Receipt, error)

	AppendEvent(e *Event) error
	HasEvent(id ProjectID, kind EventKind) (bool, error)
}

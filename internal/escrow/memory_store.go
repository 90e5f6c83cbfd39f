package escrow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type contributionKey struct {
	project     ProjectID
	contributor common.Address
}

// MemoryStore 进程内存储。工作单元失败时按日志逆序执行补偿，撤销已做的写入。
type MemoryStore struct {
	mu            sync.Mutex
	projects      []*Project
	contributions map[contributionKey]*Contribution
	receipts      map[TokenID]*Receipt
	receiptOrder  []TokenID
	events        []*Event
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contributions: make(map[contributionKey]*Contribution),
		receipts:      make(map[TokenID]*Receipt),
	}
}

// Tx 串行执行工作单元
func (s *MemoryStore) Tx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{s: s}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// Events 返回审计事件副本
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	for i, e := range s.events {
		out[i] = *e
	}
	return out
}

type memoryTx struct {
	s    *MemoryStore
	undo []func()
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) NextProjectID() (ProjectID, error) {
	return ProjectID(len(t.s.projects)), nil
}

func (t *memoryTx) InsertProject(p *Project) error {
	if int(p.ID) != len(t.s.projects) {
		return fmt.Errorf("项目编号不连续: got %d, want %d", p.ID, len(t.s.projects))
	}
	t.s.projects = append(t.s.projects, p.Clone())
	t.undo = append(t.undo, func() {
		t.s.projects = t.s.projects[:len(t.s.projects)-1]
	})
	return nil
}

func (t *memoryTx) GetProject(id ProjectID, _ bool) (*Project, error) {
	if uint64(id) >= uint64(len(t.s.projects)) {
		return nil, ErrNotFound
	}
	return t.s.projects[id].Clone(), nil
}

func (t *memoryTx) UpdateProject(p *Project) error {
	if uint64(p.ID) >= uint64(len(t.s.projects)) {
		return ErrNotFound
	}
	id := p.ID
	old := t.s.projects[id]
	t.s.projects[id] = p.Clone()
	t.undo = append(t.undo, func() {
		t.s.projects[id] = old
	})
	return nil
}

func (t *memoryTx) ListProjects(offset, limit int) ([]*Project, int64, error) {
	total := int64(len(t.s.projects))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(t.s.projects) {
		return []*Project{}, total, nil
	}
	end := len(t.s.projects)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*Project, 0, end-offset)
	for _, p := range t.s.projects[offset:end] {
		out = append(out, p.Clone())
	}
	return out, total, nil
}

func (t *memoryTx) ListDueProjects(now time.Time) ([]*Project, error) {
	var out []*Project
	for _, p := range t.s.projects {
		if !p.Deadline.After(now) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (t *memoryTx) GetContribution(id ProjectID, contributor common.Address) (*Contribution, error) {
	c, ok := t.s.contributions[contributionKey{id, contributor}]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (t *memoryTx) SaveContribution(c *Contribution) error {
	key := contributionKey{c.ProjectID, c.Contributor}
	old, existed := t.s.contributions[key]
	t.s.contributions[key] = c.Clone()
	t.undo = append(t.undo, func() {
		if existed {
			t.s.contributions[key] = old
		} else {
			delete(t.s.contributions, key)
		}
	})
	return nil
}

func (t *memoryTx) InsertReceipt(r *Receipt) error {
	if _, ok := t.s.receipts[r.TokenID]; ok {
		return fmt.Errorf("收据编号重复: %s", r.TokenID)
	}
	cp := *r
	cp.Amount = cloneInt(r.Amount)
	id := cp.TokenID
	t.s.receipts[id] = &cp
	t.s.receiptOrder = append(t.s.receiptOrder, id)
	t.undo = append(t.undo, func() {
		delete(t.s.receipts, id)
		t.s.receiptOrder = t.s.receiptOrder[:len(t.s.receiptOrder)-1]
	})
	return nil
}

func (t *memoryTx) ListReceipts(contributor common.Address) ([]*Receipt, error) {
	var out []*Receipt
	for _, id := range t.s.receiptOrder {
		r := t.s.receipts[id]
		if r.Contributor == contributor {
			cp := *r
			cp.Amount = cloneInt(r.Amount)
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (t *memoryTx) AppendEvent(e *Event) error {
	cp := *e
	if e.Amount != nil {
		cp.Amount = cloneInt(e.Amount)
	}
	t.s.events = append(t.s.events, &cp)
	t.undo = append(t.undo, func() {
		t.s.events = t.s.events[:len(t.s.events)-1]
	})
	return nil
}

func (t *memoryTx) HasEvent(id ProjectID, kind EventKind) (bool, error) {
	for _, e := range t.s.events {
		if e.ProjectID == id && e.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

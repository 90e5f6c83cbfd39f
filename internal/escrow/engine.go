package escrow

import (
	"context"
	"sync"
	"time"

	"github.com/blues/escrow/internal/logger"
	"github.com/blues/escrow/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// ValidationRules 创建项目时的校验规则
type ValidationRules struct {
	// RequireMinWithinGoal 最小贡献额为正时不得超过目标金额
	RequireMinWithinGoal bool
	// AllowZeroGoal 是否允许目标金额为 0
	AllowZeroGoal bool
}

// DefaultValidationRules 默认校验规则
func DefaultValidationRules() ValidationRules {
	return ValidationRules{
		RequireMinWithinGoal: true,
		AllowZeroGoal:        true,
	}
}

// Engine 托管引擎：项目登记、贡献账本与生命周期控制。
// 所有修改状态的操作在同一把锁下串行执行，每次调用只读取一次时钟。
type Engine struct {
	mu           sync.Mutex
	store        Store
	transferer   Transferer
	minter       Minter
	clock        clockwork.Clock
	rules        ValidationRules
	durationUnit time.Duration
}

// Option 引擎选项
type Option func(*Engine)

// WithClock 替换时钟，测试中用假时钟推进时间
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithValidationRules 替换创建项目的校验规则
func WithValidationRules(rules ValidationRules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithDurationUnit 设置 durationDays 的单位，默认 24h
func WithDurationUnit(unit time.Duration) Option {
	return func(e *Engine) {
		if unit > 0 {
			e.durationUnit = unit
		}
	}
}

// NewEngine 创建托管引擎
func NewEngine(store Store, transferer Transferer, minter Minter, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		transferer:   transferer,
		minter:       minter,
		clock:        clockwork.NewRealClock(),
		rules:        DefaultValidationRules(),
		durationUnit: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock 引擎使用的时钟
func (e *Engine) Clock() clockwork.Clock {
	return e.clock
}

func (e *Engine) observe(operation string, err error) {
	code := Code(err)
	metrics.Observe(operation, code)
	if err != nil {
		logger.Warn("%s rejected: %v", operation, err)
	}
}

// effectTx 执行会调用转账或铸造的工作单元。
// 外部调用一旦成功，记账必须提交，事务不随 ctx 取消回滚；fn 内的外部调用仍使用原 ctx。
func (e *Engine) effectTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.Tx(context.WithoutCancel(ctx), fn)
}

// now 每次调用只读一次；统一为 UTC 并截断到微秒，与数据库时间精度一致
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC().Truncate(time.Microsecond)
}

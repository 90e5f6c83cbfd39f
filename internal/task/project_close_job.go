package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/logger"
	"github.com/blues/escrow/internal/metrics"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
)

// ProjectCloseJob 项目结束公告任务：为到期项目记录 project_closed 事件，
// 再用协程池逐个输出结束摘要。
type ProjectCloseJob struct {
	engine *escrow.Engine
	config *config.Config
	pool   *ants.Pool
}

// NewProjectCloseJob 创建项目结束公告任务
func NewProjectCloseJob(engine *escrow.Engine, cfg *config.Config) (*ProjectCloseJob, error) {
	workers := cfg.Task.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return &ProjectCloseJob{
		engine: engine,
		config: cfg,
		pool:   pool,
	}, nil
}

// GetName 获取任务名称
func (j *ProjectCloseJob) GetName() string {
	return "project_close_announcer"
}

// GetSchedule 获取调度配置
func (j *ProjectCloseJob) GetSchedule() gocron.JobDefinition {
	interval := time.Duration(j.config.Task.Interval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return gocron.DurationJob(interval)
}

// Execute 执行任务
func (j *ProjectCloseJob) Execute() {
	if _, err := j.Run(context.Background()); err != nil {
		logger.Error("Project close task failed: %v", err)
	}
}

// Run 公告本轮到期的项目，返回公告数量
func (j *ProjectCloseJob) Run(ctx context.Context) (int, error) {
	closed, err := j.engine.CloseDueProjects(ctx)
	if err != nil {
		return 0, err
	}
	if len(closed) == 0 {
		return 0, nil
	}

	var wg sync.WaitGroup
	for id, state := range closed {
		id, state := id, state
		wg.Add(1)
		if err := j.pool.Submit(func() {
			defer wg.Done()
			j.announce(ctx, id, state)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
			j.announce(ctx, id, state)
		}
	}
	wg.Wait()

	logger.Info("Project close task completed, %d projects closed", len(closed))
	return len(closed), nil
}

func (j *ProjectCloseJob) announce(ctx context.Context, id escrow.ProjectID, state escrow.State) {
	metrics.ProjectsClosed.WithLabelValues(string(state)).Inc()

	view, err := j.engine.GetProjectDetails(ctx, id)
	if err != nil {
		logger.Warn("Project %d closed as %s, details unavailable: %v", id, state, err)
		return
	}
	logger.Info("Project %d closed as %s: raised %s / goal %s ether",
		id, state, escrow.FormatEther(view.TotalRaised), escrow.FormatEther(view.GoalAmount))
}

// Release 释放协程池
func (j *ProjectCloseJob) Release() {
	j.pool.Release()
}

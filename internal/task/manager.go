package task

import (
	"fmt"

	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	engine    *escrow.Engine
	config    *config.Config
	closeJob  *ProjectCloseJob
}

// NewManager 创建新的任务管理器，调度器与引擎共用同一时钟
func NewManager(engine *escrow.Engine, cfg *config.Config) (*Manager, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(engine.Clock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		engine:    engine,
		config:    cfg,
	}, nil
}

// Start 启动任务管理器
func (m *Manager) Start() error {
	// 注册所有任务
	if err := m.RegisterJobs(); err != nil {
		return err
	}

	// 启动调度器
	m.scheduler.Start()

	logger.Info("Task manager started successfully")
	return nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() error {
	return m.RegisterProjectCloseJob()
}

// RegisterProjectCloseJob 注册项目结束公告任务
func (m *Manager) RegisterProjectCloseJob() error {
	job, err := NewProjectCloseJob(m.engine, m.config)
	if err != nil {
		return err
	}

	_, err = m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		job.Release()
		return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
	}
	m.closeJob = job
	return nil
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	if m.closeJob != nil {
		m.closeJob.Release()
	}
	logger.Info("Task manager stopped")
}

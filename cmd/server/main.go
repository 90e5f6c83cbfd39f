package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/escrow/internal/chain"
	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/handler"
	"github.com/blues/escrow/internal/logger"
	"github.com/blues/escrow/internal/payout"
	"github.com/blues/escrow/internal/receipt"
	"github.com/blues/escrow/internal/repository"
	"github.com/blues/escrow/internal/router"
	"github.com/blues/escrow/internal/task"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type collaborators struct {
	transferer escrow.Transferer
	minter     escrow.Minter
	receipts   handler.ReceiptCounter
	close      func()
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	store := repository.NewGormStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化转账与收据
	collab, err := newCollaborators(ctx, cfg, store)
	if err != nil {
		logger.Fatal("Failed to initialize collaborators: %v", err)
	}
	defer collab.close()

	engine := escrow.NewEngine(
		store,
		collab.transferer,
		collab.minter,
		escrow.WithDurationUnit(cfg.Escrow.DurationUnit),
		escrow.WithValidationRules(escrow.ValidationRules{
			RequireMinWithinGoal: cfg.Escrow.RequireMinWithinGoal,
			AllowZeroGoal:        cfg.Escrow.AllowZeroGoal,
		}),
	)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(engine, collab.receipts, cfg)

	// 启动定时任务
	tasks, err := task.NewManager(engine, cfg)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := tasks.Start(); err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}
	defer tasks.Stop()

	// 启动服务器
	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}

func newCollaborators(ctx context.Context, cfg *config.Config, store *repository.GormStore) (*collaborators, error) {
	switch cfg.Escrow.Collaborators {
	case "chain":
		manager, err := chain.NewManager(ctx, cfg.Chain)
		if err != nil {
			return nil, err
		}
		minter, err := chain.NewReceiptMinter(manager, common.HexToAddress(cfg.Chain.ReceiptContract))
		if err != nil {
			_ = manager.Close()
			return nil, err
		}
		return &collaborators{
			transferer: chain.NewTransferer(manager),
			minter:     minter,
			receipts:   minter,
			close:      func() { _ = manager.Close() },
		}, nil
	default:
		if cfg.Escrow.Collaborators != "memory" {
			logger.Warn("Unknown collaborators %q, using memory", cfg.Escrow.Collaborators)
		}
		// 收据编号与持有数从已落库的收据恢复，重启后不与旧编号冲突
		receipts, err := store.AllReceipts(ctx)
		if err != nil {
			return nil, err
		}
		issuer := receipt.NewIssuerFrom(receipts)
		logger.Info("Receipt issuer restored from %d receipts", len(receipts))
		return &collaborators{
			transferer: payout.NewLedger(),
			minter:     issuer,
			receipts:   issuer,
			close:      func() {},
		}, nil
	}
}

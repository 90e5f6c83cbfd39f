package repository

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/model"
	"github.com/blues/escrow/internal/payout"
	"github.com/blues/escrow/internal/receipt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	creator = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func newTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, ":memory:")
}

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { closeDB(db) })
	return db
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func TestGormStore_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	wallet := payout.NewLedger()
	nft := receipt.NewIssuer()
	engine := escrow.NewEngine(store, wallet, nft, escrow.WithClock(clock))
	ctx := context.Background()

	id, err := engine.CreateProject(ctx, creator, escrow.CreateProjectParams{
		Title:               "NFT Project",
		Description:         "With rewards",
		MinimumContribution: escrow.MustParseEther("0.1"),
		GoalAmount:          escrow.MustParseEther("1"),
		DurationDays:        1,
	})
	require.NoError(t, err)
	assert.Equal(t, escrow.ProjectID(0), id)

	second, err := engine.CreateProject(ctx, creator, escrow.CreateProjectParams{
		Title: "Second", GoalAmount: escrow.MustParseEther("1"), DurationDays: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, escrow.ProjectID(1), second)

	token, err := engine.Participate(ctx, id, alice, escrow.MustParseEther("0.2"))
	require.NoError(t, err)
	assert.Equal(t, escrow.TokenID("0"), token)

	view, err := engine.GetProjectDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "NFT Project", view.Title)
	assert.Equal(t, "0.2", escrow.FormatEther(view.TotalRaised))
	assert.Equal(t, "0.1", escrow.FormatEther(view.MinimumContribution))
	assert.Equal(t, creator, view.Creator)
	assert.True(t, clock.Now().Add(24*time.Hour).Equal(view.Deadline))

	clock.Advance(24 * time.Hour)
	_, err = engine.Participate(ctx, id, alice, escrow.MustParseEther("0.2"))
	assert.ErrorIs(t, err, escrow.ErrCampaignClosed)

	refunded, err := engine.Refund(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "0.2", escrow.FormatEther(refunded))
	_, err = engine.Refund(ctx, id, alice)
	assert.ErrorIs(t, err, escrow.ErrNotEligible)

	c, err := engine.GetContribution(ctx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, 0, c.AmountPledged.Sign())
	assert.Equal(t, int64(1), c.ReceiptCount)

	receipts, err := engine.ListReceipts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, id, receipts[0].ProjectID)

	closed, err := engine.CloseDueProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[escrow.ProjectID]escrow.State{id: escrow.StateFailed}, closed)

	var events []model.EventModel
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	var kinds []string
	for _, e := range events {
		kinds = append(kinds, e.EventType)
	}
	assert.Equal(t, []string{
		string(escrow.EventProjectCreated),
		string(escrow.EventProjectCreated),
		string(escrow.EventContributionMade),
		string(escrow.EventRefundIssued),
		string(escrow.EventProjectClosed),
	}, kinds)
}

func TestGormStore_TxRollback(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Tx(ctx, func(tx escrow.Tx) error {
		next, err := tx.NextProjectID()
		require.NoError(t, err)
		require.NoError(t, tx.InsertProject(&escrow.Project{
			ID:                  next,
			Title:               "rolled back",
			MinimumContribution: escrow.MustParseEther("0"),
			GoalAmount:          escrow.MustParseEther("1"),
			TotalRaised:         escrow.MustParseEther("0"),
			TotalRefunded:       escrow.MustParseEther("0"),
			DurationDays:        1,
			Deadline:            time.Now().UTC(),
		}))
		require.NoError(t, tx.SaveContribution(&escrow.Contribution{
			ProjectID: next, Contributor: alice, AmountPledged: escrow.MustParseEther("0.5"), ReceiptCount: 1,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var projects, contributions int64
	require.NoError(t, db.Model(&model.ProjectModel{}).Count(&projects).Error)
	require.NoError(t, db.Model(&model.ContributeRecordModel{}).Count(&contributions).Error)
	assert.Zero(t, projects)
	assert.Zero(t, contributions)

	err = store.Tx(ctx, func(tx escrow.Tx) error {
		_, err := tx.GetProject(0, true)
		return err
	})
	assert.ErrorIs(t, err, escrow.ErrNotFound)
}

func TestGormStore_SaveContributionUpserts(t *testing.T) {
	db := newTestDB(t)
	store := NewGormStore(db)
	ctx := context.Background()

	for _, amount := range []string{"0.1", "0.3"} {
		require.NoError(t, store.Tx(ctx, func(tx escrow.Tx) error {
			return tx.SaveContribution(&escrow.Contribution{
				ProjectID: 3, Contributor: alice, AmountPledged: escrow.MustParseEther(amount), ReceiptCount: 1,
			})
		}))
	}

	require.NoError(t, store.Tx(ctx, func(tx escrow.Tx) error {
		c, err := tx.GetContribution(3, alice)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "0.3", escrow.FormatEther(c.AmountPledged))

		missing, err := tx.GetContribution(3, creator)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	}))

	var count int64
	require.NoError(t, db.Model(&model.ContributeRecordModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGormStore_ReceiptIssuerSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "escrow.db")
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	ctx := context.Background()

	start := func(db *gorm.DB) (*escrow.Engine, *receipt.Issuer) {
		store := NewGormStore(db)
		receipts, err := store.AllReceipts(ctx)
		require.NoError(t, err)
		issuer := receipt.NewIssuerFrom(receipts)
		return escrow.NewEngine(store, payout.NewLedger(), issuer, escrow.WithClock(clock)), issuer
	}

	db := openTestDB(t, path)
	engine, _ := start(db)
	id, err := engine.CreateProject(ctx, creator, escrow.CreateProjectParams{
		Title: "Restart", GoalAmount: escrow.MustParseEther("1"), DurationDays: 1,
	})
	require.NoError(t, err)
	token, err := engine.Participate(ctx, id, alice, escrow.MustParseEther("0.2"))
	require.NoError(t, err)
	assert.Equal(t, escrow.TokenID("0"), token)
	closeDB(db)

	// 重启：新连接、新发行方
	engine, issuer := start(openTestDB(t, path))
	token, err = engine.Participate(ctx, id, bob, escrow.MustParseEther("0.3"))
	require.NoError(t, err)
	assert.Equal(t, escrow.TokenID("1"), token)

	for addr, want := range map[common.Address]int64{alice: 1, bob: 1} {
		balance, err := issuer.BalanceOf(ctx, addr)
		require.NoError(t, err)
		assert.Equal(t, want, balance)
	}
	view, err := engine.GetProjectDetails(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0.5", escrow.FormatEther(view.TotalRaised))
}

// cancelingTransferer 转账成功后请求 ctx 才被取消
type cancelingTransferer struct {
	cancel context.CancelFunc
}

func (c cancelingTransferer) Transfer(_ context.Context, _ common.Address, _ *big.Int) error {
	c.cancel()
	return nil
}

func TestGormStore_RefundCommitsAfterRequestCanceled(t *testing.T) {
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := escrow.NewEngine(NewGormStore(db), cancelingTransferer{cancel: cancel}, receipt.NewIssuer(), escrow.WithClock(clock))
	ctx := context.Background()

	id, err := engine.CreateProject(ctx, creator, escrow.CreateProjectParams{
		Title: "Canceled", GoalAmount: escrow.MustParseEther("1"), DurationDays: 1,
	})
	require.NoError(t, err)
	_, err = engine.Participate(ctx, id, alice, escrow.MustParseEther("0.2"))
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)

	refunded, err := engine.Refund(reqCtx, id, alice)
	require.NoError(t, err)
	assert.Equal(t, "0.2", escrow.FormatEther(refunded))
	assert.Error(t, reqCtx.Err())

	c, err := engine.GetContribution(ctx, id, alice)
	require.NoError(t, err)
	assert.Zero(t, c.AmountPledged.Sign())
	_, err = engine.Refund(ctx, id, alice)
	assert.ErrorIs(t, err, escrow.ErrNotEligible)
}

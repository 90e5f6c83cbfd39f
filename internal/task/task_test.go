package task

import (
	"context"
	"testing"
	"time"

	"github.com/blues/escrow/internal/config"
	"github.com/blues/escrow/internal/escrow"
	"github.com/blues/escrow/internal/metrics"
	"github.com/blues/escrow/internal/payout"
	"github.com/blues/escrow/internal/receipt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func newEngine(t *testing.T) (*escrow.Engine, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	engine := escrow.NewEngine(escrow.NewMemoryStore(), payout.NewLedger(), receipt.NewIssuer(), escrow.WithClock(clock))
	return engine, clock
}

func TestProjectCloseJob_Run(t *testing.T) {
	ctx := context.Background()
	engine, clock := newEngine(t)
	cfg := &config.Config{Task: config.TaskConfig{Interval: 60, Workers: 2}}

	job, err := NewProjectCloseJob(engine, cfg)
	require.NoError(t, err)
	defer job.Release()

	create := func(goal string, days int64) escrow.ProjectID {
		id, err := engine.CreateProject(ctx, owner, escrow.CreateProjectParams{
			Title: "Test", GoalAmount: escrow.MustParseEther(goal), DurationDays: days,
		})
		require.NoError(t, err)
		return id
	}
	funded := create("1", 1)
	unfunded := create("1", 1)
	later := create("1", 3)
	_, err = engine.Participate(ctx, funded, alice, escrow.MustParseEther("1"))
	require.NoError(t, err)

	succeededBefore := testutil.ToFloat64(metrics.ProjectsClosed.WithLabelValues(string(escrow.StateSucceeded)))
	failedBefore := testutil.ToFloat64(metrics.ProjectsClosed.WithLabelValues(string(escrow.StateFailed)))

	n, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock.Advance(24 * time.Hour)
	n, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, succeededBefore+1, testutil.ToFloat64(metrics.ProjectsClosed.WithLabelValues(string(escrow.StateSucceeded))))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.ProjectsClosed.WithLabelValues(string(escrow.StateFailed))))

	// 已公告的项目不再重复公告
	n, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock.Advance(2 * 24 * time.Hour)
	n, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	view, err := engine.GetProjectDetails(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, escrow.StateFailed, view.State)
	view, err = engine.GetProjectDetails(ctx, unfunded)
	require.NoError(t, err)
	assert.Equal(t, escrow.StateFailed, view.State)
}

func TestProjectCloseJob_Schedule(t *testing.T) {
	engine, _ := newEngine(t)
	testCases := []struct {
		name     string
		interval int
		workers  int
	}{
		{name: "配置间隔", interval: 30, workers: 4},
		{name: "间隔为0使用默认值", interval: 0, workers: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			job, err := NewProjectCloseJob(engine, &config.Config{Task: config.TaskConfig{Interval: tc.interval, Workers: tc.workers}})
			require.NoError(t, err)
			defer job.Release()
			assert.Equal(t, "project_close_announcer", job.GetName())
			assert.NotNil(t, job.GetSchedule())
		})
	}
}

func TestManager_RegisterJobs(t *testing.T) {
	engine, _ := newEngine(t)
	m, err := NewManager(engine, &config.Config{Task: config.TaskConfig{Interval: 60, Workers: 1}})
	require.NoError(t, err)

	require.NoError(t, m.Start())
	defer m.Stop()

	jobs := m.scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "project_close_announcer", jobs[0].Name())
}

package escrow

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveState(t *testing.T) {
	deadline := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name   string
		raised int64
		goal   int64
		now    time.Time
		want   State
	}{
		{name: "截止前未达标", raised: 1, goal: 10, now: deadline.Add(-time.Second), want: StateActive},
		{name: "截止前已达标仍在进行中", raised: 10, goal: 10, now: deadline.Add(-time.Second), want: StateActive},
		{name: "截止时刻达标", raised: 10, goal: 10, now: deadline, want: StateSucceeded},
		{name: "截止后超额", raised: 11, goal: 10, now: deadline.Add(time.Hour), want: StateSucceeded},
		{name: "截止时刻未达标", raised: 9, goal: 10, now: deadline, want: StateFailed},
		{name: "目标为0无人认捐", raised: 0, goal: 0, now: deadline, want: StateSucceeded},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Project{
				Deadline:    deadline,
				TotalRaised: big.NewInt(tc.raised),
				GoalAmount:  big.NewInt(tc.goal),
			}
			assert.Equal(t, tc.want, DeriveState(p, tc.now))
		})
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "ok", Code(nil))
	assert.Equal(t, "not_found", Code(ErrNotFound))
	assert.Equal(t, "transfer_failed", Code(wrap(ErrTransferFailed)))
	assert.Equal(t, "internal", Code(assert.AnError))
}

func wrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

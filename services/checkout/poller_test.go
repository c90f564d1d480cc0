package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrine-checkout-api/models"
)

// checker programável: devolve a sequência dada e depois repete o último
type scriptedChecker struct {
	mu       sync.Mutex
	sequence []models.OrderStatus
	errs     []error
	calls    int
}

func (c *scriptedChecker) check(ctx context.Context, orderID string) (models.OrderStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.calls
	c.calls++

	if idx < len(c.errs) && c.errs[idx] != nil {
		return "", c.errs[idx]
	}
	if idx >= len(c.sequence) {
		idx = len(c.sequence) - 1
	}
	return c.sequence[idx], nil
}

func (c *scriptedChecker) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestPoller(check StatusChecker, maxAttempts int) *StatusPoller {
	p := NewStatusPoller(check)
	p.Interval = 5 * time.Millisecond
	p.MaxAttempts = maxAttempts
	p.ApproveDelay = 5 * time.Millisecond
	return p
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestPollerTimesOutAtMaxAttempts(t *testing.T) {
	checker := &scriptedChecker{sequence: []models.OrderStatus{models.OrderStatusPending}}
	p := newTestPoller(checker.check, 5)

	var mu sync.Mutex
	var statuses []models.OrderStatus
	p.OnStatus = func(orderID string, status models.OrderStatus, attempts int) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}

	p.Start("order-1")

	waitFor(t, func() bool { return !p.Running() }, "poller never stopped")

	assert.Equal(t, models.OrderStatusTimeout, p.Status())
	assert.Equal(t, 5, p.Attempts())

	// parou de verdade: nenhuma consulta depois do timeout
	calls := checker.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, checker.callCount())

	mu.Lock()
	last := statuses[len(statuses)-1]
	mu.Unlock()
	assert.Equal(t, models.OrderStatusTimeout, last)
}

func TestPollerExhaustionKeepsAdoptedStatus(t *testing.T) {
	// in_process na última tentativa não é timeout: timeout só vale para
	// pedido ainda pendente
	checker := &scriptedChecker{sequence: []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusInProcess,
	}}
	p := newTestPoller(checker.check, 2)

	var mu sync.Mutex
	var statuses []models.OrderStatus
	p.OnStatus = func(orderID string, status models.OrderStatus, attempts int) {
		mu.Lock()
		statuses = append(statuses, status)
		mu.Unlock()
	}

	p.Start("order-7")
	waitFor(t, func() bool { return !p.Running() }, "poller never stopped")

	assert.Equal(t, models.OrderStatusInProcess, p.Status())
	assert.Equal(t, 2, p.Attempts())

	mu.Lock()
	defer mu.Unlock()
	assert.NotContains(t, statuses, models.OrderStatusTimeout)
}

func TestPollerApprovedAfterDisplayDelay(t *testing.T) {
	checker := &scriptedChecker{sequence: []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusPending,
		models.OrderStatusApproved,
	}}
	p := newTestPoller(checker.check, 60)

	approvedAt := make(chan time.Time, 1)
	var statusAt time.Time
	p.OnStatus = func(orderID string, status models.OrderStatus, attempts int) {
		if status == models.OrderStatusApproved {
			statusAt = time.Now()
		}
	}
	p.OnApproved = func(orderID string) {
		approvedAt <- time.Now()
	}

	p.Start("order-2")

	select {
	case at := <-approvedAt:
		require.False(t, statusAt.IsZero())
		assert.GreaterOrEqual(t, at.Sub(statusAt), 5*time.Millisecond,
			"navigation only after the display delay")
	case <-time.After(2 * time.Second):
		t.Fatal("OnApproved never fired")
	}

	waitFor(t, func() bool { return !p.Running() }, "poller still running after approval")
	assert.Equal(t, models.OrderStatusApproved, p.Status())
}

func TestPollerStopsOnRejected(t *testing.T) {
	checker := &scriptedChecker{sequence: []models.OrderStatus{models.OrderStatusRejected}}
	p := newTestPoller(checker.check, 60)

	p.Start("order-3")
	waitFor(t, func() bool { return !p.Running() }, "poller never stopped")

	assert.Equal(t, models.OrderStatusRejected, p.Status())
	assert.Equal(t, 1, p.Attempts())
}

func TestPollerTransientErrorsCountAttempts(t *testing.T) {
	checker := &scriptedChecker{
		sequence: []models.OrderStatus{models.OrderStatusApproved},
		errs:     []error{errors.New("timeout"), errors.New("502")},
	}
	p := newTestPoller(checker.check, 60)

	done := make(chan struct{})
	p.OnApproved = func(orderID string) { close(done) }

	p.Start("order-4")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never recovered from transient errors")
	}

	assert.GreaterOrEqual(t, p.Attempts(), 3, "failed polls count as attempts")
}

func TestPollerStopIsIdempotent(t *testing.T) {
	checker := &scriptedChecker{sequence: []models.OrderStatus{models.OrderStatusPending}}
	p := newTestPoller(checker.check, 1000)

	p.Start("order-5")
	require.True(t, p.Running())

	p.Stop()
	p.Stop()
	assert.False(t, p.Running())

	// Start com o poller parado pode recomeçar do zero
	p.Start("order-5")
	require.True(t, p.Running())
	p.Stop()
}

func TestPollerStartWhileRunningIsIgnored(t *testing.T) {
	checker := &scriptedChecker{sequence: []models.OrderStatus{models.OrderStatusPending}}
	p := newTestPoller(checker.check, 1000)

	p.Start("order-6")
	defer p.Stop()

	waitFor(t, func() bool { return p.Attempts() > 0 }, "poller never ticked")
	attempts := p.Attempts()

	p.Start("order-6")
	assert.GreaterOrEqual(t, p.Attempts(), attempts, "second Start must not reset the counter")
}

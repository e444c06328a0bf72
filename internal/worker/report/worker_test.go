package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWarmer struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeWarmer) WarmDashboard(_ context.Context, now time.Time) (report.RevenueReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)

	return report.RevenueReport{}, f.err
}

func (f *fakeWarmer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.calls)
}

func newTestWorker(w warmer, interval time.Duration) *Worker {
	return &Worker{
		warmer:   w,
		interval: interval,
		now:      func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
		stopCh:   make(chan struct{}),
	}
}

func TestWorkerWarmsOnStartAndTick(t *testing.T) {
	warmer := &fakeWarmer{}
	w := newTestWorker(warmer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return warmer.count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), warmer.calls[0])
}

func TestWorkerKeepsRunningAfterFailure(t *testing.T) {
	warmer := &fakeWarmer{err: errors.New("store down")}
	w := newTestWorker(warmer, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return warmer.count() >= 2 }, time.Second, 5*time.Millisecond)
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fulfillment/internal/service/models/report"
	"github.com/spf13/viper"
)

type warmer interface {
	WarmDashboard(ctx context.Context, now time.Time) (report.RevenueReport, error)
}

// Worker keeps the default dashboard revenue report fresh in the report cache.
type Worker struct {
	warmer   warmer
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewWorker creates a report worker refreshing every reports.warm_interval.
func NewWorker(warmer warmer) *Worker {
	interval := viper.GetDuration("reports.warm_interval")
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Worker{
		warmer:   warmer,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start warms once immediately, then on every tick until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Report worker started", "interval", w.interval)
	w.warm(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Report worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Report worker stopped")

			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

func (w *Worker) warm(ctx context.Context) {
	start := time.Now()
	r, err := w.warmer.WarmDashboard(ctx, w.now())
	if err != nil {
		slog.Error("Failed to warm dashboard report", "error", err)

		return
	}

	slog.Debug("Dashboard report warmed",
		"start", r.Start,
		"end", r.End,
		"points", len(r.Points),
		"took", time.Since(start),
	)
}

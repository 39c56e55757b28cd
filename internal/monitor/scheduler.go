package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"security-service/internal/util"
)

// Scheduler runs the monitor on a fixed interval until its context is
// cancelled. The same Monitor can also be triggered over HTTP; the
// window lease keeps the two from double-notifying.
type Scheduler struct {
	monitor  *Monitor
	interval time.Duration
	logger   *zap.Logger
}

func NewScheduler(monitor *Monitor, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{monitor: monitor, interval: interval, logger: logger}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("security monitor scheduler started",
		util.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("security monitor scheduler stopped")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, s.interval)
			summary, err := s.monitor.Run(runCtx)
			cancel()
			if err != nil {
				s.logger.Error("scheduled monitoring run failed", util.ErrorField(err))
				continue
			}
			if summary.Skipped {
				continue
			}
			s.logger.Info("scheduled monitoring run finished",
				util.Int("events_analyzed", summary.EventsAnalyzed),
				util.Int("notifications_sent", summary.NotificationsSent))
		}
	}
}

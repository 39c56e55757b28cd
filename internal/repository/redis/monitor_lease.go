package redis

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"security-service/internal/client"
	"security-service/internal/util"
)

const monitorLeasePrefix = "security_monitor_lease:"

// MonitorLease guards the monitor sweep against overlapping
// invocations. A SetNX keyed by the truncated window start means only
// one run fans out notifications per window.
type MonitorLease struct {
	client *client.RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewMonitorLease(rdb *client.RedisClient, ttl time.Duration, logger *zap.Logger) *MonitorLease {
	if ttl <= 0 {
		ttl = 9 * time.Minute
	}
	return &MonitorLease{
		client: rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire attempts to take the lease for the window starting at
// windowStart. It returns false when another invocation already holds
// it. An unreachable Redis degrades to acquired so the sweep still runs.
func (l *MonitorLease) Acquire(ctx context.Context, windowStart time.Time) (bool, error) {
	key := fmt.Sprintf("%s%d", monitorLeasePrefix, windowStart.UTC().Unix())

	ok, err := l.client.SetNX(ctx, key, "held", l.ttl)
	if err != nil {
		l.logger.Warn("monitor lease unavailable, proceeding unguarded",
			util.ErrorField(err))
		return true, nil
	}
	return ok, nil
}

package idempotency

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RunJanitor purges records older than ttl every interval until ctx is done.
func RunJanitor(ctx context.Context, store Store, ttl, interval time.Duration, log *logrus.Entry) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Purge(ctx, now.Add(-ttl))
			if err != nil {
				log.WithError(err).Warn("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.WithField("purged", n).Debug("expired idempotency keys removed")
			}
		}
	}
}

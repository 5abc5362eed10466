package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reconcileTimeout = time.Minute

// StartReconciler runs Reconcile on schedule until the returned cron is stopped.
func StartReconciler(service Service, schedule string, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()

		report, err := service.Reconcile(ctx)
		if err != nil {
			logger.Error("payment reconcile failed", zap.Error(err))
			return
		}
		if report.Deleted > 0 || len(report.Orphaned) > 0 {
			logger.Info("payment reconcile finished",
				zap.Int("deleted", report.Deleted), zap.Strings("orphaned", report.Orphaned))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule payment reconcile %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

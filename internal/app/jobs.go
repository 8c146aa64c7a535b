package app

import (
	"context"
	"time"

	"github.com/garyellow/program-catalog-go/internal/config"
	"github.com/garyellow/program-catalog-go/internal/source"
)

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.startup(ctx)
	})
	a.wg.Go(func() {
		a.updateGaugeMetrics(ctx)
	})
}

// startup refreshes the snapshot from R2, probes the remote API and then
// marks the service ready. Failures leave the bundled snapshot in use.
func (a *Application) startup(ctx context.Context) {
	defer func() {
		a.readinessState.MarkReady()
		a.logger.Info("Service marked as ready after startup")
	}()

	a.refreshSnapshot(ctx)
	a.probe(ctx)
}

func (a *Application) refreshSnapshot(ctx context.Context) {
	if a.snapshots == nil {
		return
	}
	refreshCtx, cancel := context.WithTimeout(ctx, config.SnapshotDownload)
	defer cancel()

	start := time.Now()
	res, err := a.snapshots.Refresh(refreshCtx)
	if err != nil {
		// Refresh already logged the failure; the bundled snapshot stays in place.
		return
	}
	a.logger.WithField("status", string(res.Status)).
		WithField("etag", res.ETag).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Startup snapshot refresh finished")
}

// probe runs the connectivity probe once and hands the result to the
// selector. It does nothing when no remote API is configured.
func (a *Application) probe(ctx context.Context) {
	if !a.cfg.RemoteEnabled() {
		return
	}
	status := source.Probe(ctx, a.probeClient, a.cfg.RemoteBaseURL, config.ConnectivityProbe)
	if ctx.Err() != nil {
		status = source.StatusError
	}

	if !a.selector.SetStatus(status) {
		a.logger.WithField("status", string(a.selector.Status())).
			Warn("Connectivity already resolved, probe result ignored")
		return
	}
	a.logger.WithField("status", string(status)).Info("Remote catalog connectivity resolved")
}

// updateGaugeMetrics periodically records subscriber and session counts.
func (a *Application) updateGaugeMetrics(ctx context.Context) {
	a.logger.Debug("Gauge metrics job started")
	defer a.logger.Debug("Gauge metrics job stopped")

	a.recordGaugeMetrics(ctx)

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordGaugeMetrics(ctx)
		}
	}
}

func (a *Application) recordGaugeMetrics(ctx context.Context) {
	if count, err := a.db.CountSubscriptions(ctx); err == nil {
		a.metrics.SetSubscribers(count)
	} else if ctx.Err() == nil {
		a.logger.WithError(err).Warn("Failed to count subscriptions for metrics")
	}
	a.metrics.SetActiveSessions(a.sessions.Len())
}

package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/program-catalog-go/internal/buildinfo"
	"github.com/garyellow/program-catalog-go/internal/config"
)

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if !a.readinessState.IsReady() {
		status := a.readinessState.Status()
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": status.Reason,
			"progress": gin.H{
				"elapsed_seconds": status.ElapsedSeconds,
				"timeout_seconds": status.TimeoutSeconds,
			},
		})
		return
	}

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	subscribers, err := a.db.CountSubscriptions(ctx)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count subscriptions in readiness check")
		subscribers = -1
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ready",
		"database":    "connected",
		"build":       buildinfo.Get(),
		"connection":  a.selector.Status(),
		"sessions":    a.sessions.Len(),
		"subscribers": subscribers,
		"snapshot":    a.snapshotInfo(),
	})
}

func (a *Application) snapshotInfo() gin.H {
	info := gin.H{"dir": a.cfg.SnapshotDir, "distribution": a.snapshots != nil}
	if a.snapshots != nil {
		info["etag"] = a.snapshots.CurrentETag()
	}
	return info
}

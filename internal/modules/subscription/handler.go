// Package subscription serves the newsletter subscription endpoints.
package subscription

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/program-catalog-go/internal/bilingual"
	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/storage"
)

// ModuleName identifies the module in logs and metrics.
const ModuleName = "subscription"

// Handler serves POST /subscriptions and DELETE /subscriptions/:email.
type Handler struct {
	repo    storage.SubscriptionRepository
	metrics *metrics.Metrics
	logger  *logger.Logger
	errs    *domerrors.ErrorWrapper
}

// NewHandler creates a subscription handler backed by repo.
func NewHandler(repo storage.SubscriptionRepository, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		repo:    repo,
		metrics: m,
		logger:  log.WithModule(ModuleName),
		errs:    domerrors.NewWrapper(ModuleName, "save"),
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// RegisterRoutes mounts the subscription endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/subscriptions", h.subscribe)
	r.DELETE("/subscriptions/:email", h.unsubscribe)
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,email,max=254"`
	Lang  string `json:"lang"`
}

// subscribe is idempotent: repeating a request returns 200 instead of 201.
func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordHTTPError("invalid_input", ModuleName)
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "A valid email address is required",
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	lang, ok := bilingual.ParseLanguage(req.Lang)
	if !ok {
		if strings.TrimSpace(req.Lang) != "" {
			h.metrics.RecordHTTPError("invalid_input", ModuleName)
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Unsupported language",
				"success": false,
			})
			return
		}
		lang = bilingual.MatchAcceptLanguage(c.GetHeader("Accept-Language"))
	}

	ctx := c.Request.Context()
	sub, created, err := h.repo.Subscribe(ctx, req.Email, string(lang))
	if err != nil {
		h.fail(c, h.errs.Wrap(err, "Subscription could not be saved"))
		return
	}

	status, action := http.StatusOK, "unchanged"
	if created {
		status, action = http.StatusCreated, "subscribe"
	}
	h.metrics.RecordSubscription(action)
	h.refreshGauge(ctx)

	c.JSON(status, gin.H{
		"success":      true,
		"created":      created,
		"subscription": sub,
	})
}

func (h *Handler) unsubscribe(c *gin.Context) {
	ctx := c.Request.Context()
	removed, err := h.repo.Unsubscribe(ctx, c.Param("email"))
	if err != nil {
		h.fail(c, h.errs.Wrap(err, "Subscription could not be removed"))
		return
	}
	if !removed {
		h.metrics.RecordHTTPError("not_found", ModuleName)
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Subscription not found",
			"success": false,
		})
		return
	}

	h.metrics.RecordSubscription("unsubscribe")
	h.refreshGauge(ctx)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) refreshGauge(ctx context.Context) {
	count, err := h.repo.CountSubscriptions(ctx)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to count subscriptions")
		return
	}
	h.metrics.SetSubscribers(count)
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.metrics.RecordHTTPError("internal", ModuleName)
	h.logger.WithError(err).ErrorContext(c.Request.Context(), "Subscription storage failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": domerrors.GetUserMessage(err),
		"success": false,
	})
}

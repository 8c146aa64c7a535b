// Package catalog exposes catalog sessions over HTTP: filtered, paginated
// listings and bilingual program detail.
package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyellow/program-catalog-go/internal/bilingual"
	"github.com/garyellow/program-catalog-go/internal/catalog"
	"github.com/garyellow/program-catalog-go/internal/ctxutil"
	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/facet"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/sentry"
)

// Module constants for the catalog handler.
const (
	ModuleName    = "catalog"
	SessionHeader = "X-Catalog-Session"
	ExcerptRunes  = 160
)

// Handler serves the catalog listing and detail endpoints.
type Handler struct {
	registry *catalog.Registry
	orch     *catalog.Orchestrator
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewHandler creates a catalog handler over the sessions in registry.
func NewHandler(orch *catalog.Orchestrator, registry *catalog.Registry, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		registry: registry,
		orch:     orch,
		metrics:  m,
		logger:   log.WithModule(ModuleName),
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// RegisterRoutes mounts the catalog endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/catalog", h.list)
	r.POST("/catalog/retry", h.retry)
	r.GET("/catalog/programs/:id", h.detail)
}

// list loads one page for the requested filter. A request carrying a known
// session id resumes that session; otherwise a new session is opened.
func (h *Handler) list(c *gin.Context) {
	lang := requestLanguage(c)

	filter := parseFilter(c)
	page, err := parsePage(c.Query("page"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	if err := filter.Validate(); err != nil {
		h.badRequest(c, err)
		return
	}

	session, created := h.registry.Acquire(c.GetHeader(SessionHeader))
	c.Header(SessionHeader, session.ID())
	ctx := ctxutil.WithSessionID(c.Request.Context(), session.ID())

	current := session.Current()
	var view catalog.View
	navigated := true
	if !created && current.State == catalog.StateReady &&
		current.Filter.Key() == filter.Key() && current.Page.CurrentPage != page {
		view, navigated, err = session.GoToPage(ctx, page)
	} else {
		view, err = session.Load(ctx, filter, page)
	}
	if err != nil {
		h.loadFailed(c, session.ID(), err)
		return
	}

	resp := listResponse(view, lang)
	resp.Navigated = navigated
	resp.RequestedPage = page
	c.JSON(http.StatusOK, resp)
}

// retry repeats the session's last load with identical parameters.
func (h *Handler) retry(c *gin.Context) {
	id := c.GetHeader(SessionHeader)
	session, ok := h.registry.Get(id)
	if !ok {
		h.metrics.RecordHTTPError("session_not_found", ModuleName)
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Catalog session not found",
			"success": false,
		})
		return
	}
	c.Header(SessionHeader, session.ID())

	ctx := ctxutil.WithSessionID(c.Request.Context(), session.ID())
	view, err := session.Retry(ctx)
	if err != nil {
		h.loadFailed(c, session.ID(), err)
		return
	}
	c.JSON(http.StatusOK, listResponse(view, requestLanguage(c)))
}

func (h *Handler) detail(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	lang := requestLanguage(c)

	p, origin, err := h.orch.Detail(c.Request.Context(), id)
	if err != nil {
		if domerrors.IsNotFound(err) || domerrors.IsInvalidInput(err) {
			h.metrics.RecordHTTPError("not_found", ModuleName)
			c.JSON(http.StatusNotFound, gin.H{
				"message":   "Program not found",
				"success":   false,
				"id":        id,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		h.unavailable(c, "", err)
		return
	}

	c.JSON(http.StatusOK, detailResponse(&p, origin, lang))
}

func (h *Handler) loadFailed(c *gin.Context, sessionID string, err error) {
	switch {
	case errors.Is(err, catalog.ErrStale):
		h.metrics.RecordHTTPError("stale", ModuleName)
		c.JSON(http.StatusConflict, gin.H{
			"message":    "Request superseded by a newer one",
			"success":    false,
			"session_id": sessionID,
		})
	case domerrors.IsInvalidInput(err):
		h.badRequest(c, err)
	default:
		h.unavailable(c, sessionID, err)
	}
}

func (h *Handler) unavailable(c *gin.Context, sessionID string, err error) {
	h.metrics.RecordHTTPError("unavailable", ModuleName)
	sentry.CaptureException(c.Request.Context(), err, map[string]string{"module": ModuleName})

	body := gin.H{
		"message":   "Programs are temporarily unavailable",
		"success":   false,
		"retryable": true,
	}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	c.JSON(http.StatusServiceUnavailable, body)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.metrics.RecordHTTPError("invalid_input", ModuleName)
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Invalid catalog request",
		"success": false,
		"error":   err.Error(),
	})
}

// requestLanguage prefers the lang query parameter, then Accept-Language.
func requestLanguage(c *gin.Context) bilingual.Language {
	if lang, ok := bilingual.ParseLanguage(c.Query("lang")); ok {
		return lang
	}
	return bilingual.MatchAcceptLanguage(c.GetHeader("Accept-Language"))
}

// parseFilter reads each facet from repeated or comma-separated query values.
// Parameters that name no facet are ignored.
func parseFilter(c *gin.Context) facet.FilterState {
	values := make(map[facet.Facet][]string, len(facet.Facets))
	for key, raw := range c.Request.URL.Query() {
		f, err := facet.ParseFacet(key)
		if err != nil {
			continue
		}
		for _, v := range raw {
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					values[f] = append(values[f], part)
				}
			}
		}
	}
	return facet.NewFilterState(values[facet.Category], values[facet.Country], values[facet.GradeLevel])
}

func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domerrors.NewValidationError("page", "must be a positive integer")
	}
	return n, nil
}

// Package program serves the file-backed content API: the full program
// records of a content directory, verbatim.
package program

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/program"
	"github.com/garyellow/program-catalog-go/internal/source"
)

// ModuleName identifies the module in logs and metrics.
const ModuleName = "program"

// Handler serves GET /programs and GET /programs/:id.
type Handler struct {
	loader  *source.LocalLoader
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewHandler creates a content handler reading from loader.
func NewHandler(loader *source.LocalLoader, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{
		loader:  loader,
		metrics: m,
		logger:  log.WithModule(ModuleName),
	}
}

// Name returns the module name
func (h *Handler) Name() string {
	return ModuleName
}

// RegisterRoutes mounts the content endpoints on r.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/programs", h.list)
	r.GET("/programs/:id", h.get)
}

// list returns every readable record in index order. Unreadable files are
// omitted; an unreadable index is a 500.
func (h *Handler) list(c *gin.Context) {
	programs, err := h.loader.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to load programs")
		return
	}
	if programs == nil {
		programs = []program.Program{}
	}
	c.JSON(http.StatusOK, programs)
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	p, err := h.loader.Get(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, p)
	case domerrors.IsNotFound(err) || domerrors.IsInvalidInput(err):
		h.metrics.RecordHTTPError("not_found", ModuleName)
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Program not found",
			"success": false,
		})
	default:
		h.fail(c, err, "Failed to load program")
	}
}

func (h *Handler) fail(c *gin.Context, err error, message string) {
	h.metrics.RecordHTTPError("internal", ModuleName)
	h.logger.WithError(err).ErrorContext(c.Request.Context(), message)
	c.JSON(http.StatusInternalServerError, gin.H{
		"message": message,
		"success": false,
		"error":   err.Error(),
	})
}

// Package catalog composes the source selector, facet filters and pagination
// into catalog sessions.
//
// A session is one mounted listing view. Every filter or page change starts a
// load tagged with a new token; a load that finishes after a newer one was
// issued is discarded with ErrStale. The post-filter set for the current
// filter is kept so page-only changes never query the source again.
package catalog

import (
	"context"
	"errors"

	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/pagination"
	"github.com/garyellow/program-catalog-go/internal/program"
	"github.com/garyellow/program-catalog-go/internal/source"
)

// ErrStale is returned for a load superseded by a newer one in the same session.
var ErrStale = errors.New("catalog: superseded by a newer request")

// Loader provides raw records. *source.Selector implements it.
type Loader interface {
	Load(ctx context.Context) (source.Result, error)
	Get(ctx context.Context, id string) (program.Program, source.Origin, error)
}

// Orchestrator creates catalog sessions over a shared loader.
type Orchestrator struct {
	loader       Loader
	itemsPerPage int
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

// New creates an orchestrator. A non-positive itemsPerPage uses the default page size.
func New(loader Loader, itemsPerPage int, log *logger.Logger, m *metrics.Metrics) *Orchestrator {
	if itemsPerPage <= 0 {
		itemsPerPage = pagination.DefaultItemsPerPage
	}
	return &Orchestrator{
		loader:       loader,
		itemsPerPage: itemsPerPage,
		logger:       log.WithModule("catalog"),
		metrics:      m,
	}
}

// ItemsPerPage returns the page size used by new sessions.
func (o *Orchestrator) ItemsPerPage() int {
	return o.itemsPerPage
}

// Detail returns a single program by id or program_id.
func (o *Orchestrator) Detail(ctx context.Context, id string) (program.Program, source.Origin, error) {
	return o.loader.Get(ctx, id)
}

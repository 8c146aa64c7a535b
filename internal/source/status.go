// Package source loads program records from the remote catalog API or the
// bundled local snapshot.
//
// The connectivity probe runs once at startup and its result is handed to the
// Selector. A Selector never rewrites that status: a failing remote call falls
// back to the snapshot for that call only.
package source

import (
	"context"

	"github.com/garyellow/program-catalog-go/internal/program"
)

// ConnectionStatus is the outcome of the startup connectivity probe.
type ConnectionStatus string

// Probe states. StatusSuccess and StatusError are terminal for a process.
const (
	StatusIdle    ConnectionStatus = "idle"
	StatusTesting ConnectionStatus = "testing"
	StatusSuccess ConnectionStatus = "success"
	StatusError   ConnectionStatus = "error"
)

// Origin identifies where a result came from.
type Origin string

// Result origins.
const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// Source is a catalog data source.
type Source interface {
	// List returns every program in catalog order.
	List(ctx context.Context) ([]program.Program, error)
	// Get returns a single program by id or program_id.
	Get(ctx context.Context, id string) (program.Program, error)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/program-catalog-go/internal/ctxutil"
	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/program"
)

// Result is a catalog load and where it came from.
type Result struct {
	Programs []program.Program
	Origin   Origin
}

// UsingLocalData reports whether the hosts should show the
// "using local data" notice.
func (r Result) UsingLocalData() bool {
	return r.Origin == OriginLocal
}

// Selector chooses between the remote API and the local snapshot per call.
type Selector struct {
	status  atomic.Value // ConnectionStatus
	remote  Source
	local   Source
	logger  *logger.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewSelector creates a selector for the probe result status. remote may be
// nil when no remote API is configured.
func NewSelector(status ConnectionStatus, remote, local Source, log *logger.Logger, m *metrics.Metrics) *Selector {
	s := &Selector{
		remote:  remote,
		local:   local,
		logger:  log.WithModule("source"),
		metrics: m,
	}
	s.status.Store(status)
	return s
}

// Status returns the current probe result.
func (s *Selector) Status() ConnectionStatus {
	return s.status.Load().(ConnectionStatus)
}

// SetStatus records the startup probe result. Only a selector still in
// StatusTesting accepts it, and only a terminal status (success or error);
// any other call is a no-op reporting false.
func (s *Selector) SetStatus(status ConnectionStatus) bool {
	if status != StatusSuccess && status != StatusError {
		return false
	}
	return s.status.CompareAndSwap(StatusTesting, status)
}

func (s *Selector) useRemote() bool {
	return s.Status() == StatusSuccess && s.remote != nil
}

// Load returns the full catalog. The remote API is tried only when the probe
// succeeded; any remote failure falls back to the snapshot within the same
// call. An error is returned only when every source failed.
// Concurrent loads share one in-flight request.
func (s *Selector) Load(ctx context.Context) (Result, error) {
	ch := s.group.DoChan("list", func() (any, error) {
		return s.load(ctxutil.PreserveTracing(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.RecordSingleflightDedup()
		}
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *Selector) load(ctx context.Context) (Result, error) {
	var remoteErr error
	if s.useRemote() {
		programs, err := s.remote.List(ctx)
		if err == nil {
			return Result{Programs: programs, Origin: OriginRemote}, nil
		}
		remoteErr = err
		s.metrics.RecordFallback("remote_error")
		s.logger.WithError(err).WarnContext(ctx, "Remote catalog failed, using local snapshot")
	} else {
		s.metrics.RecordFallback("probe_failed")
	}

	programs, err := s.local.List(ctx)
	if err != nil {
		return Result{}, totalFailure(remoteErr, err)
	}
	return Result{Programs: programs, Origin: OriginLocal}, nil
}

// Get returns a single program with the same remote-then-local policy as Load.
// A record missing from every source yields an error matching ErrNotFound.
func (s *Selector) Get(ctx context.Context, id string) (program.Program, Origin, error) {
	var remoteErr error
	if s.useRemote() {
		p, err := s.remote.Get(ctx, id)
		if err == nil {
			return p, OriginRemote, nil
		}
		remoteErr = err
		if !domerrors.IsNotFound(err) {
			s.metrics.RecordFallback("remote_error")
			s.logger.WithError(err).WithField("id", id).WarnContext(ctx, "Remote program lookup failed, using local snapshot")
		}
	}

	p, err := s.local.Get(ctx, id)
	if err == nil {
		return p, OriginLocal, nil
	}
	if domerrors.IsNotFound(err) || domerrors.IsInvalidInput(err) {
		return program.Program{}, OriginLocal, err
	}
	return program.Program{}, OriginLocal, totalFailure(remoteErr, err)
}

func totalFailure(remoteErr, localErr error) error {
	if remoteErr != nil {
		return fmt.Errorf("%w: %w", domerrors.ErrSourceUnavailable, errors.Join(remoteErr, localErr))
	}
	return fmt.Errorf("%w: %w", domerrors.ErrSourceUnavailable, localErr)
}

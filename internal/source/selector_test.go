package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/program"
)

func TestSelector_Load(t *testing.T) {
	t.Parallel()
	remotePrograms := []program.Program{{ID: "r1", TitleEN: "Remote"}}
	localPrograms := []program.Program{{ID: "l1", TitleEN: "Local"}, {ID: "l2", TitleEN: "Local 2"}}

	tests := []struct {
		name            string
		status          ConnectionStatus
		remoteErr       error
		localErr        error
		wantOrigin      Origin
		wantIDs         []string
		wantRemoteCalls int32
		wantErrIs       error
	}{
		{name: "probe succeeded uses remote", status: StatusSuccess, wantOrigin: OriginRemote, wantIDs: []string{"r1"}, wantRemoteCalls: 1},
		{name: "remote failure falls back in same call", status: StatusSuccess, remoteErr: errors.New("connection refused"), wantOrigin: OriginLocal, wantIDs: []string{"l1", "l2"}, wantRemoteCalls: 1},
		{name: "probe failed skips remote", status: StatusError, wantOrigin: OriginLocal, wantIDs: []string{"l1", "l2"}},
		{name: "probe still testing skips remote", status: StatusTesting, wantOrigin: OriginLocal, wantIDs: []string{"l1", "l2"}},
		{name: "idle skips remote", status: StatusIdle, wantOrigin: OriginLocal, wantIDs: []string{"l1", "l2"}},
		{name: "both fail", status: StatusSuccess, remoteErr: errors.New("timeout"), localErr: errors.New("index unreadable"), wantRemoteCalls: 1, wantErrIs: domerrors.ErrSourceUnavailable},
		{name: "local only fails", status: StatusError, localErr: errors.New("index unreadable"), wantErrIs: domerrors.ErrSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			remote := &fakeSource{programs: remotePrograms, err: tt.remoteErr}
			local := &fakeSource{programs: localPrograms, err: tt.localErr}
			s := NewSelector(tt.status, remote, local, testLogger(), nil)

			res, err := s.Load(context.Background())

			assert.Equal(t, tt.wantRemoteCalls, remote.calls.Load())
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, res.Origin)
			assert.Equal(t, tt.wantOrigin == OriginLocal, res.UsingLocalData())
			assert.Equal(t, tt.wantIDs, programIDs(res.Programs))
		})
	}
}

// A remote that always fails yields exactly what the snapshot-only path yields.
func TestSelector_FallbackMatchesLocalOnly(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
	}))
	defer srv.Close()

	fsys := snapshotFS(5)
	fsys["program4.json"].Data = []byte("not json")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	local := NewLocalLoader(fsys, testLogger(), m)
	remote := NewRemoteClient(srv.URL, time.Second, WithMaxRetries(0), WithRemoteMetrics(m))

	withRemote := NewSelector(StatusSuccess, remote, local, testLogger(), m)
	localOnly := NewSelector(StatusError, nil, local, testLogger(), m)

	got, err := withRemote.Load(context.Background())
	require.NoError(t, err)
	want, err := localOnly.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OriginLocal, got.Origin)
	assert.Equal(t, programIDs(want.Programs), programIDs(got.Programs))
	assert.Equal(t, []string{"1", "2", "3", "5"}, programIDs(got.Programs))
	assert.InDelta(t, 1, testutil.ToFloat64(m.SourceFallbacksTotal.WithLabelValues("remote_error")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.SnapshotSkippedFiles), 0)
}

func TestSelector_Load_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	started := make(chan struct{}, 10)
	local := &fakeSource{
		programs: []program.Program{{ID: "1"}},
		listHook: func() {
			started <- struct{}{}
			<-release
		},
	}
	s := NewSelector(StatusError, nil, local, testLogger(), nil)

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = s.Load(context.Background())
		}()
	}

	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), local.calls.Load())
	for _, r := range results {
		assert.Equal(t, []string{"1"}, programIDs(r.Programs))
	}
}

func TestSelector_Load_CallerCancellation(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	local := &fakeSource{programs: []program.Program{{ID: "1"}}, listHook: func() { <-release }}
	s := NewSelector(StatusError, nil, local, testLogger(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	res, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Programs, 1)
}

func TestSelector_Get(t *testing.T) {
	t.Parallel()
	remote := &fakeSource{programs: []program.Program{{ID: "1", TitleEN: "remote copy"}}}
	local := &fakeSource{programs: []program.Program{{ID: "1", TitleEN: "local copy"}, {ID: "2", ProgramID: "P-2"}}}

	s := NewSelector(StatusSuccess, remote, local, testLogger(), nil)

	p, origin, err := s.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, OriginRemote, origin)
	assert.Equal(t, "remote copy", p.TitleEN)

	p, origin, err = s.Get(context.Background(), "P-2")
	require.NoError(t, err)
	assert.Equal(t, OriginLocal, origin, "remote miss falls back to the snapshot")
	assert.Equal(t, "2", p.ID)

	_, _, err = s.Get(context.Background(), "404")
	require.ErrorIs(t, err, domerrors.ErrNotFound)
	assert.False(t, errors.Is(err, domerrors.ErrSourceUnavailable))

	remote.err = errors.New("down")
	local.err = errors.New("disk gone")
	_, _, err = s.Get(context.Background(), "1")
	require.ErrorIs(t, err, domerrors.ErrSourceUnavailable)
}

func TestSelector_SetStatus(t *testing.T) {
	t.Parallel()
	remote := &fakeSource{programs: []program.Program{{ID: "r1"}}}
	local := &fakeSource{programs: []program.Program{{ID: "l1"}}}
	s := NewSelector(StatusTesting, remote, local, testLogger(), nil)

	res, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginLocal, res.Origin)

	assert.False(t, s.SetStatus(StatusTesting), "only terminal results are accepted")
	assert.True(t, s.SetStatus(StatusSuccess))
	assert.Equal(t, StatusSuccess, s.Status())

	res, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OriginRemote, res.Origin)

	// The status is terminal once set.
	assert.False(t, s.SetStatus(StatusError))
	assert.Equal(t, StatusSuccess, s.Status())
}

func TestSelector_SetStatusIgnoredWhenNotTesting(t *testing.T) {
	t.Parallel()
	for _, initial := range []ConnectionStatus{StatusIdle, StatusSuccess, StatusError} {
		s := NewSelector(initial, nil, &fakeSource{}, testLogger(), nil)
		assert.False(t, s.SetStatus(StatusSuccess), "initial %s", initial)
		assert.False(t, s.SetStatus(StatusError), "initial %s", initial)
		assert.Equal(t, initial, s.Status())
	}
}

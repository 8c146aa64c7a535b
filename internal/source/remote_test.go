package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
)

func TestRemoteClient_List(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/programs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = fmt.Fprintf(w, "[%s,%s]", programDoc(1), programDoc(2))
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, time.Second)
	programs, err := c.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, programIDs(programs))
}

func TestRemoteClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprintf(w, "[%s]", programDoc(9))
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, 5*time.Second, WithMaxRetries(2))
	programs, err := c.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, programs, 1)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRemoteClient_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantErrIs error
		wantCalls int32
	}{
		{
			name:      "server error after retries",
			handler:   func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantErrIs: domerrors.ErrSourceUnavailable,
			wantCalls: 2,
		},
		{
			name:      "client error is not retried",
			handler:   func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) },
			wantErrIs: domerrors.ErrSourceUnavailable,
			wantCalls: 1,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"not":"an array"}`))
			},
			wantErrIs: domerrors.ErrMalformedPayload,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			c := NewRemoteClient(srv.URL, 5*time.Second, WithMaxRetries(1))
			_, err := c.List(context.Background())

			require.ErrorIs(t, err, tt.wantErrIs)
			var srcErr *domerrors.SourceError
			require.ErrorAs(t, err, &srcErr)
			assert.Equal(t, "remote", srcErr.Origin)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestRemoteClient_Timeout(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, 50*time.Millisecond, WithMaxRetries(0))
	start := time.Now()
	_, err := c.List(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRemoteClient_Get(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/programs/5":
			_, _ = w.Write([]byte(programDoc(5)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, time.Second, WithMaxRetries(3))

	p, err := c.Get(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "P-5", p.ProgramID)

	_, err = c.Get(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, domerrors.IsNotFound(err))
	var srcErr *domerrors.SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, http.StatusNotFound, srcErr.StatusCode)
}

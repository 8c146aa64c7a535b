package source

import (
	"context"
	"strconv"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
)

func TestLocalLoader_List_PreservesIndexOrder(t *testing.T) {
	t.Parallel()
	fsys := snapshotFS(20)
	l := NewLocalLoader(fsys, testLogger(), nil)

	programs, err := l.List(context.Background())

	require.NoError(t, err)
	require.Len(t, programs, 20)
	for i, p := range programs {
		assert.Equal(t, strconv.Itoa(i+1), p.ID)
	}
}

func TestLocalLoader_List_SkipsInvalidFile(t *testing.T) {
	t.Parallel()
	fsys := snapshotFS(5)
	fsys["program3.json"] = &fstest.MapFile{Data: []byte(`{"id": 3, "title_en": `)}
	l := NewLocalLoader(fsys, testLogger(), nil)

	programs, err := l.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "4", "5"}, programIDs(programs))
}

func TestLocalLoader_List_SkipsMissingAndUnsafeFiles(t *testing.T) {
	t.Parallel()
	fsys := snapshotFS(2)
	fsys[IndexFile] = &fstest.MapFile{Data: []byte(`["program1.json","missing.json","../etc/passwd","./program2.json","program2.json"]`)}
	l := NewLocalLoader(fsys, testLogger(), nil)

	programs, err := l.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, programIDs(programs))
}

func TestLocalLoader_List_DropsDuplicateIDs(t *testing.T) {
	t.Parallel()
	fsys := snapshotFS(3)
	fsys["copy.json"] = &fstest.MapFile{Data: []byte(`{"id":"2","title_en":"Copy"}`)}
	fsys[IndexFile] = &fstest.MapFile{Data: []byte(`["program1.json","program2.json","copy.json","program3.json"]`)}
	l := NewLocalLoader(fsys, testLogger(), nil)

	programs, err := l.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, programIDs(programs))
	assert.Equal(t, "Program 2", programs[1].TitleEN)
}

func TestLocalLoader_List_IndexFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		fsys  fstest.MapFS
		errIs error
	}{
		{name: "missing index", fsys: fstest.MapFS{}},
		{name: "malformed index", fsys: fstest.MapFS{IndexFile: {Data: []byte(`{"files":`)}}, errIs: domerrors.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLocalLoader(tt.fsys, testLogger(), nil).List(context.Background())
			require.Error(t, err)
			var srcErr *domerrors.SourceError
			require.ErrorAs(t, err, &srcErr)
			assert.Equal(t, "local", srcErr.Origin)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
		})
	}
}

func TestLocalLoader_List_EmptyIndex(t *testing.T) {
	t.Parallel()
	l := NewLocalLoader(fstest.MapFS{IndexFile: {Data: []byte(`[]`)}}, testLogger(), nil)
	programs, err := l.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, programs)
}

func TestLocalLoader_Get(t *testing.T) {
	t.Parallel()
	fsys := snapshotFS(3)
	fsys["extra.json"] = &fstest.MapFile{Data: []byte(`{"id":"abc","program_id":"SUMMER-24","title_en":"Summer"}`)}
	fsys[IndexFile] = &fstest.MapFile{Data: []byte(`["program1.json","program2.json","program3.json","extra.json"]`)}
	l := NewLocalLoader(fsys, testLogger(), nil)

	tests := []struct {
		name   string
		id     string
		wantID string
		errIs  error
	}{
		{name: "direct file lookup", id: "2", wantID: "2"},
		{name: "scan by id", id: "abc", wantID: "abc"},
		{name: "scan by program_id", id: "SUMMER-24", wantID: "abc"},
		{name: "scan by numeric program_id", id: "P-3", wantID: "3"},
		{name: "not found", id: "99", errIs: domerrors.ErrNotFound},
		{name: "empty id", id: " ", errIs: domerrors.ErrInvalidInput},
		{name: "path traversal id", id: "/../index", errIs: domerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := l.Get(context.Background(), tt.id)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestLocalLoader_List_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocalLoader(snapshotFS(3), testLogger(), nil).List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestContentLoader_KeepsUnvalidatedRecords(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		IndexFile:    {Data: []byte(`["keyed.json","blank.json","dup.json","bad.json"]`)},
		"keyed.json": {Data: []byte(`{"program_id":"summer-2024","title_en":"Summer"}`)},
		"blank.json": {Data: []byte(`{"id":"7","title_en":"","title_zh":""}`)},
		"dup.json":   {Data: []byte(`{"id":"7","title_en":"Again"}`)},
		"bad.json":   {Data: []byte(`{"id":`)},
	}
	l := NewContentLoader(fsys, testLogger(), nil)

	programs, err := l.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", "7", "7"}, programIDs(programs))

	p, err := l.Get(context.Background(), "summer-2024")
	require.NoError(t, err)
	assert.Equal(t, "Summer", p.TitleEN)

	// The catalog loader applies validation and dedupe to the same files.
	programs, err = NewLocalLoader(fsys, testLogger(), nil).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, programIDs(programs))
	assert.Equal(t, "Again", programs[0].TitleEN)
}

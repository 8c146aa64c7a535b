package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing/fstest"

	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/program"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

func programDoc(id int) string {
	return fmt.Sprintf(`{"id":%d,"program_id":"P-%d","title_en":"Program %d","title_zh":"課程 %d","country":"usa"}`, id, id, id, id)
}

// snapshotFS builds a snapshot with n valid programs named program<i>.json.
func snapshotFS(n int) fstest.MapFS {
	fsys := fstest.MapFS{}
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("program%d.json", i)
		names = append(names, name)
		fsys[name] = &fstest.MapFile{Data: []byte(programDoc(i))}
	}
	index, _ := json.Marshal(names)
	fsys[IndexFile] = &fstest.MapFile{Data: index}
	return fsys
}

func programIDs(programs []program.Program) []string {
	out := make([]string, len(programs))
	for i, p := range programs {
		out[i] = p.ID
	}
	return out
}

// fakeSource is a scripted Source.
type fakeSource struct {
	mu       sync.Mutex
	programs []program.Program
	err      error
	listHook func()
	calls    atomic.Int32
}

func (f *fakeSource) List(context.Context) ([]program.Program, error) {
	f.calls.Add(1)
	if f.listHook != nil {
		f.listHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.programs, nil
}

func (f *fakeSource) Get(_ context.Context, id string) (program.Program, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return program.Program{}, f.err
	}
	if p, ok := program.Find(f.programs, id); ok {
		return p, nil
	}
	return program.Program{}, fmt.Errorf("program %q: %w", id, domerrors.ErrNotFound)
}

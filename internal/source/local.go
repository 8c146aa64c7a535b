package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/program-catalog-go/internal/config"
	domerrors "github.com/garyellow/program-catalog-go/internal/errors"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/metrics"
	"github.com/garyellow/program-catalog-go/internal/program"
)

// IndexFile is the ordered list of program file names in a snapshot.
const IndexFile = "index.json"

// LocalLoader reads programs from a snapshot directory laid out as
// index.json plus one JSON file per program.
type LocalLoader struct {
	fsys        fs.FS
	logger      *logger.Logger
	metrics     *metrics.Metrics
	concurrency int
	verbatim    bool // keep every parseable record: no validation, no dedupe
}

// NewLocalLoader creates a catalog loader over fsys. Records failing
// validation are skipped and duplicate ids are dropped.
func NewLocalLoader(fsys fs.FS, log *logger.Logger, m *metrics.Metrics) *LocalLoader {
	return &LocalLoader{
		fsys:        fsys,
		logger:      log.WithModule("snapshot"),
		metrics:     m,
		concurrency: config.LocalLoadConcurrency,
	}
}

// NewContentLoader creates a loader for the content API over fsys. A file
// is omitted only when it cannot be read or parsed; records without an id,
// without titles or sharing an id are all kept.
func NewContentLoader(fsys fs.FS, log *logger.Logger, m *metrics.Metrics) *LocalLoader {
	l := NewLocalLoader(fsys, log, m)
	l.logger = log.WithModule("content")
	l.verbatim = true
	return l
}

// Index returns the file names listed in index.json, in order.
func (l *LocalLoader) Index() ([]string, error) {
	data, err := fs.ReadFile(l.fsys, IndexFile)
	if err != nil {
		return nil, domerrors.NewSourceError(string(OriginLocal), IndexFile, 0, err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, domerrors.NewSourceError(string(OriginLocal), IndexFile, 0,
			fmt.Errorf("%w: %w", domerrors.ErrMalformedPayload, err))
	}
	return names, nil
}

// List reads every indexed file. A file that cannot be read or parsed is
// logged and skipped; only an unreadable index fails the load. Records with
// an id already seen earlier in the index are dropped.
func (l *LocalLoader) List(ctx context.Context) ([]program.Program, error) {
	start := time.Now()
	names, err := l.Index()
	if err != nil {
		l.metrics.RecordSourceRequest(string(OriginLocal), "error", time.Since(start).Seconds())
		return nil, err
	}

	slots := make([]*program.Program, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := l.readFile(name)
			if err != nil {
				l.metrics.RecordSkippedFile()
				l.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable snapshot file")
				return nil
			}
			slots[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.metrics.RecordSourceRequest(string(OriginLocal), "error", time.Since(start).Seconds())
		return nil, domerrors.NewSourceError(string(OriginLocal), IndexFile, 0, err)
	}

	programs := make([]program.Program, 0, len(names))
	for _, p := range slots {
		if p != nil {
			programs = append(programs, *p)
		}
	}
	if l.verbatim {
		l.metrics.RecordSourceRequest(string(OriginLocal), "success", time.Since(start).Seconds())
		return programs, nil
	}
	programs, dropped := program.Dedupe(programs)
	if len(dropped) > 0 {
		l.logger.WithField("ids", dropped).Warn("Dropped snapshot records with duplicate ids")
	}

	l.metrics.RecordSourceRequest(string(OriginLocal), "success", time.Since(start).Seconds())
	return programs, nil
}

// Get looks up program<id>.json directly, then scans the indexed files
// comparing id and program_id.
func (l *LocalLoader) Get(ctx context.Context, id string) (program.Program, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return program.Program{}, domerrors.NewValidationError("id", "must not be empty")
	}

	if name := "program" + id + ".json"; fs.ValidPath(name) {
		if p, err := l.readFile(name); err == nil {
			return p, nil
		}
	}

	programs, err := l.List(ctx)
	if err != nil {
		return program.Program{}, err
	}
	if p, ok := program.Find(programs, id); ok {
		return p, nil
	}
	return program.Program{}, fmt.Errorf("program %q: %w", id, domerrors.ErrNotFound)
}

func (l *LocalLoader) readFile(name string) (program.Program, error) {
	if !fs.ValidPath(name) || path.Clean(name) != name {
		return program.Program{}, domerrors.NewValidationError("file", fmt.Sprintf("invalid snapshot path %q", name))
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return program.Program{}, err
	}
	if l.verbatim {
		var p program.Program
		if err := json.Unmarshal(data, &p); err != nil {
			return program.Program{}, err
		}
		return p, nil
	}
	return program.Decode(data)
}

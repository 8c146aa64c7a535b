// Package main provides the snapshot tool: it packs a content directory
// into a zstd tar archive and publishes it to R2, or pulls the latest
// archive into the local snapshot directory.
//
// Usage:
//
//	snapshot pack -dir ./content -out snapshot.tar.zst
//	snapshot publish -dir ./content
//	snapshot refresh
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/garyellow/program-catalog-go/internal/config"
	"github.com/garyellow/program-catalog-go/internal/logger"
	"github.com/garyellow/program-catalog-go/internal/r2client"
	"github.com/garyellow/program-catalog-go/internal/snapshot"
)

const usage = `usage: snapshot <command> [flags]

commands:
  pack     write a snapshot archive of a content directory to a file
  publish  upload a content directory as the current snapshot
  refresh  download the current snapshot into the snapshot directory
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "pack":
		return runPack(args[1:], stdout)
	case "publish":
		return runPublish(args[1:], stdout)
	case "refresh":
		return runRefresh(args[1:], stdout)
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func runPack(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	dir := fs.String("dir", "", "content directory containing index.json")
	out := fs.String("out", "snapshot.tar.zst", "output archive path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return errors.New("pack: -dir is required")
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	files, err := snapshot.Pack(os.DirFS(*dir), f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(*out)
		return fmt.Errorf("pack: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "packed %d files into %s\n", files, *out)
	return nil
}

func runPublish(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	dir := fs.String("dir", "", "content directory containing index.json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return errors.New("publish: -dir is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.SnapshotUpload)
	defer cancel()

	mgr, log, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	start := time.Now()
	etag, files, err := mgr.Publish(ctx, *dir)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	log.WithField("etag", etag).
		WithField("files", files).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Snapshot published")
	_, _ = fmt.Fprintf(stdout, "published %d files (etag %s)\n", files, etag)
	return nil
}

func runRefresh(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.SnapshotDownload)
	defer cancel()

	mgr, log, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	res, err := mgr.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "snapshot %s: %d files in %s (etag %s)\n", res.Status, res.Files, mgr.Dir(), res.ETag)
	return nil
}

func newManager(ctx context.Context) (*snapshot.Manager, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.R2.Enabled {
		return nil, nil, errors.New(config.EnvR2Enabled + " must be true to use R2")
	}

	log := logger.New(cfg.LogLevel).WithModule("snapshot")
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2.Endpoint(),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("r2 client: %w", err)
	}
	return snapshot.New(client, cfg.R2.SnapshotKey, cfg.SnapshotDir, log, nil), log, nil
}

// Package snapshot packs catalog content directories into zstd-compressed
// tar archives and distributes them through R2.
package snapshot

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// maxEntrySize bounds a single unpacked file.
const maxEntrySize = 64 << 20

// ErrUnsafePath is returned when an archive entry would escape the target directory.
var ErrUnsafePath = errors.New("snapshot: unsafe archive path")

// Pack writes every regular file under fsys as a zstd-compressed tar stream.
// Entries are written in lexical order; the number of files packed is returned.
func Pack(fsys fs.FS, w io.Writer) (int, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return 0, fmt.Errorf("pack: create encoder: %w", err)
	}
	tw := tar.NewWriter(enc)

	count := 0
	walkErr := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := writeEntry(tw, fsys, name, info); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		_ = tw.Close()
		_ = enc.Close()
		return 0, fmt.Errorf("pack: %w", walkErr)
	}

	if err := tw.Close(); err != nil {
		_ = enc.Close()
		return 0, fmt.Errorf("pack: close tar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("pack: close encoder: %w", err)
	}
	return count, nil
}

func writeEntry(tw *tar.Writer, fsys fs.FS, name string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uname, hdr.Gname = "", ""
	hdr.Uid, hdr.Gid = 0, 0
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := fsys.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// Unpack extracts a stream written by Pack into destDir, creating it if
// needed. Entries with absolute or parent-relative names are rejected with
// ErrUnsafePath; links and other non-regular entries are skipped.
func Unpack(r io.Reader, destDir string) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("unpack: create decoder: %w", err)
	}
	defer dec.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("unpack: create dir: %w", err)
	}

	tr := tar.NewReader(dec)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("unpack: read entry: %w", err)
		}

		name := path.Clean(hdr.Name)
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return count, fmt.Errorf("%w: %q", ErrUnsafePath, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeReg:
			if hdr.Size > maxEntrySize {
				return count, fmt.Errorf("unpack: %s exceeds %d bytes", name, maxEntrySize)
			}
			if err := extractFile(tr, filepath.Join(destDir, filepath.FromSlash(name))); err != nil {
				return count, fmt.Errorf("unpack: %s: %w", name, err)
			}
			count++
		case tar.TypeDir:
			if err := os.MkdirAll(filepath.Join(destDir, filepath.FromSlash(name)), 0o755); err != nil {
				return count, fmt.Errorf("unpack: %s: %w", name, err)
			}
		}
	}
}

func extractFile(r io.Reader, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, io.LimitReader(r, maxEntrySize)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

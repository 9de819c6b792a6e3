// Package backup writes gzipped tarballs of world directories. The
// lifecycle controller brackets calls to Create between autosave
// disable and re-enable; this package only does the copying.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
)

// DefaultName returns the tarball name for a world backup taken at t:
// <world>_<yyyy-mm-dd_HHhMM>.tar.gz, timestamps in UTC.
func DefaultName(world string, t time.Time) string {
	return fmt.Sprintf("%s_%s.tar.gz", world, t.UTC().Format("2006-01-02_15h04"))
}

// Create archives srcDir into a gzipped tarball at destPath. The
// archive is built in a temporary file and renamed into place, so an
// interrupted backup never leaves a truncated tarball behind. Entries
// are stored relative to srcDir's parent, preserving the directory
// name the way the restore side expects.
func Create(srcDir, destPath string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("backup source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("backup source %s is not a directory", srcDir)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("backup destination: %w", err)
	}

	pending, err := renameio.NewPendingFile(destPath, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("backup destination: %w", err)
	}
	defer pending.Cleanup()

	gz := gzip.NewWriter(pending)
	tw := tar.NewWriter(gz)

	base := filepath.Base(srcDir)
	root := filepath.Dir(srcDir)

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		var linkTarget string
		if info.Mode()&fs.ModeSymlink != 0 {
			if linkTarget, err = os.Readlink(path); err != nil {
				return err
			}
		}

		hdr, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		return fmt.Errorf("backup %s: %w", base, err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("backup %s: %w", base, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("backup %s: %w", base, err)
	}
	return pending.CloseAtomicallyReplace()
}

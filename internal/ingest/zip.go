package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxZipEntryBytes caps a single extracted file.
const maxZipEntryBytes = 64 << 20

// ExtractZip unpacks archive into dest. Entries that would land outside
// dest, symlinks and oversized files are rejected.
func ExtractZip(archive, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	for _, f := range r.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry %q escapes destination", f.Name)
		}
		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		case mode&os.ModeSymlink != 0:
			return fmt.Errorf("zip entry %q is a symlink", f.Name)
		}
		if f.UncompressedSize64 > maxZipEntryBytes {
			return fmt.Errorf("zip entry %q is too large (%d bytes)", f.Name, f.UncompressedSize64)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %q: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, io.LimitReader(src, maxZipEntryBytes+1)); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// OpenDataset scans input, which is either a dataset directory or a ZIP of
// one. The returned cleanup removes any temporary extraction and is never nil.
func OpenDataset(input string, logger *slog.Logger) (ScanResult, func(), error) {
	noop := func() {}
	if !strings.EqualFold(filepath.Ext(input), ".zip") {
		res, err := ScanDataset(input, logger)
		return res, noop, err
	}

	tmp, err := os.MkdirTemp("", "kycverify-dataset-*")
	if err != nil {
		return ScanResult{}, noop, err
	}
	cleanup := func() { _ = os.RemoveAll(tmp) }
	if err := ExtractZip(input, tmp); err != nil {
		cleanup()
		return ScanResult{}, noop, err
	}
	res, err := ScanDataset(tmp, logger)
	if err != nil {
		cleanup()
		return ScanResult{}, noop, err
	}
	return res, cleanup, nil
}

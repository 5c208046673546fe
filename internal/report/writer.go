// Package report emits the artifacts a verification run produces:
// verdict.json, tribunal_verdicts.json, and REPORT.md (spec.md §6).
package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeAtomic writes data to path via a temp-file-then-rename, the same
// discipline internal/task/state.go's writeAtomic uses: write to path+".tmp",
// flush, close, then rename over the destination so a reader never observes
// a partially written artifact.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: creating directory %q: %w", dir, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("report: creating temp file %q: %w", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("report: writing temp file %q: %w", tmp, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("report: syncing temp file %q: %w", tmp, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("report: closing temp file %q: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("report: renaming temp file to %q: %w", path, err)
	}

	return nil
}

// Package fsutil provides file helpers shared by the sync pipeline.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := file.Name()

	_, err = file.Write(data)
	if err == nil {
		err = file.Chmod(perm)
	}
	closeErr := file.Close()
	if err != nil {
		os.Remove(tmpPath) // cleanup on failure
		return err
	}
	if closeErr != nil {
		os.Remove(tmpPath) // cleanup on failure
		return closeErr
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// FileMode returns the permission bits of path, or fallback if it cannot be stat'ed.
func FileMode(path string, fallback fs.FileMode) fs.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return fallback
	}
	return info.Mode().Perm()
}

// Exists reports whether path exists and is a regular file.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

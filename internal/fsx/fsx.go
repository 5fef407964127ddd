// Package fsx is the filesystem used by the recording pipeline.
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// renameFunc is swapped in tests to simulate cross-device renames.
var renameFunc = os.Rename

// PathTypeConflictError is returned when a destination exists but is not a regular file.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path type conflict at %q: want %s, got %s", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// FS implements the pipeline's filesystem on the local disk.
type FS struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

func New() *FS {
	return &FS{DirPerm: 0o755, FilePerm: 0o644}
}

func (f *FS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f *FS) MkdirAll(path string) error {
	return os.MkdirAll(path, f.DirPerm)
}

// Move renames src to dst. Renames across filesystems (the camera's cache
// directory is often on a different mount) fall back to copy then delete.
func (f *FS) Move(src, dst string) error {
	if err := checkDestination(dst); err != nil {
		return err
	}
	err := renameFunc(src, dst)
	if err == nil {
		return nil
	}
	if !isEXDEV(err) {
		return err
	}
	if err := f.Copy(src, dst); err != nil {
		return fmt.Errorf("moving across devices: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing source after cross-device move: %w", err)
	}
	return nil
}

// Copy writes src to dst through a temp file in dst's directory so a partial
// copy never appears under the final name.
func (f *FS) Copy(src, dst string) error {
	if err := checkDestination(dst); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir, name := filepath.Split(dst)
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return err
	}
	if err := tmp.Chmod(f.FilePerm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := renameFunc(tmpName, dst); err != nil {
		return err
	}
	_ = syncDirBestEffort(dir)
	return nil
}

func (f *FS) Remove(path string) error {
	return os.Remove(path)
}

func checkDestination(dst string) error {
	fi, err := os.Lstat(dst)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if fi.IsDir() {
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	}
	if !fi.Mode().IsRegular() {
		return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

package fileutils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	return errors.WithStack(os.MkdirAll(dir, 0o755))
}

// MoveFile relocates src to dst, creating dst's parent directories. It tries
// a rename first; any rename failure (cross-filesystem moves included) falls
// back to copy-then-delete. A failed copy never leaves a partial dst behind.
func MoveFile(src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return err
	}
	return errors.WithStack(os.Remove(src))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(out.Close())
}

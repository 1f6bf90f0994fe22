package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoBasePath is returned when a path has no parent directory to write
// siblings into.
var ErrNoBasePath = errors.New("path has no base directory")

// BasePath returns the directory containing path.
func BasePath(path string) (string, error) {
	if path == "" {
		return "", ErrNoBasePath
	}
	dir := filepath.Dir(path)
	if dir == path {
		return "", fmt.Errorf("%w: %s", ErrNoBasePath, path)
	}
	return dir, nil
}

// RemoveExt strips the extension from path.
func RemoveExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// ReplaceExt swaps the extension of path for ext, which includes the dot.
func ReplaceExt(path, ext string) string {
	return RemoveExt(path) + ext
}

// safeJoin joins a stored entry name onto dir, rejecting names that would
// escape it.
func safeJoin(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if clean == "." || clean == ".." || filepath.IsAbs(clean) || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("unsafe entry name %q", name)
	}
	return filepath.Join(dir, clean), nil
}

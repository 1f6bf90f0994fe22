// Package iso pulls individual files out of an ISO 9660 disc image.
package iso

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kdomanski/iso9660"
)

// ErrNotFound is returned when a path does not exist on the disc.
var ErrNotFound = errors.New("iso: file not found")

// Standard locations of the game's files on a UMD image.
const (
	MetadataPath = "PSP_GAME/USRDIR/PAC0.BIN"
	PayloadPath  = "PSP_GAME/USRDIR/PAC1.BIN"
	EbootPath    = "PSP_GAME/SYSDIR/EBOOT.BIN"
	MovieDir     = "PSP_GAME/USRDIR/movie"
)

// Disc is an opened disc image.
type Disc struct {
	file  *os.File
	image *iso9660.Image
}

// Open opens the disc image at path.
func Open(path string) (*Disc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open disc image: %w", err)
	}

	img, err := iso9660.OpenImage(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read disc image %s: %w", path, err)
	}

	return &Disc{file: f, image: img}, nil
}

// Close releases the underlying image file.
func (d *Disc) Close() error {
	return d.file.Close()
}

// ExtractNamedFile returns the contents of the file at path, a slash
// separated path from the disc root. Names are matched case-insensitively
// and without ISO version suffixes.
func (d *Disc) ExtractNamedFile(path string) ([]byte, error) {
	f, err := d.lookup(path)
	if err != nil {
		return nil, err
	}
	if f.IsDir() {
		return nil, fmt.Errorf("iso: %s is a directory", path)
	}

	buf := make([]byte, f.Size())
	if _, err := io.ReadFull(f.Reader(), buf); err != nil {
		return nil, fmt.Errorf("failed to read %s from disc: %w", path, err)
	}
	return buf, nil
}

// ListFiles returns the names of the regular files directly inside dir,
// without ISO version suffixes.
func (d *Disc) ListFiles(dir string) ([]string, error) {
	f, err := d.lookup(dir)
	if err != nil {
		return nil, err
	}
	if !f.IsDir() {
		return nil, fmt.Errorf("iso: %s is not a directory", dir)
	}

	children, err := f.GetChildren()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var names []string
	for _, c := range children {
		if c.IsDir() {
			continue
		}
		names = append(names, CleanName(c.Name()))
	}
	return names, nil
}

func (d *Disc) lookup(path string) (*iso9660.File, error) {
	cur, err := d.image.RootDir()
	if err != nil {
		return nil, fmt.Errorf("failed to read disc root: %w", err)
	}

	for _, part := range SplitPath(path) {
		if !cur.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		children, err := cur.GetChildren()
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", cur.Name(), err)
		}

		var next *iso9660.File
		for _, c := range children {
			if MatchName(c.Name(), part) {
				next = c
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		cur = next
	}

	return cur, nil
}

// SplitPath splits a disc path into its components, dropping empty and "."
// components.
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if p == "" || p == "." {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// CleanName strips the version suffix and a bare trailing dot from an
// on-disc identifier.
func CleanName(identifier string) string {
	if i := strings.IndexByte(identifier, ';'); i >= 0 {
		identifier = identifier[:i]
	}
	return strings.TrimSuffix(identifier, ".")
}

// MatchName compares an on-disc identifier with a wanted name.
func MatchName(identifier, want string) bool {
	return strings.EqualFold(CleanName(identifier), want)
}

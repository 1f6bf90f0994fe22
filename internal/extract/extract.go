// Package extract writes the contents of a PAC archive to disk, expanding
// compressed entries and nested archives on the way.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ossyrian/pacparse/internal/lzs"
	"github.com/ossyrian/pacparse/internal/lzss"
	"github.com/ossyrian/pacparse/internal/pac"
	"github.com/ossyrian/pacparse/internal/render"
	"github.com/ossyrian/pacparse/internal/tim2"
	"github.com/ossyrian/pacparse/internal/types"
)

// ErrNestingTooDeep is reported when nested .lzs entries go deeper than the
// configured limit.
var ErrNestingTooDeep = errors.New("nested archives exceed depth limit")

// Stats counts what an Extractor did.
type Stats struct {
	Directories int64
	Files       int64 // file nodes read from the payload
	Written     int64
	Skipped     int64
	Warnings    int64
	PNGs        int64
}

// Extractor walks an archive tree and writes its entries. An Extractor may
// run several ExtractFile workers at once; Extract itself is sequential
// because it shares a single payload reader.
type Extractor struct {
	recursive bool
	renderPNG bool
	pngScale  int
	colorKey  *tim2.Pixel
	verify    bool
	jobs      int
	maxDepth  int
	dryRun    bool
	logger    *slog.Logger

	directories atomic.Int64
	files       atomic.Int64
	written     atomic.Int64
	skipped     atomic.Int64
	warnings    atomic.Int64
	pngs        atomic.Int64
}

// New returns an Extractor.
func New(opts ...Option) *Extractor {
	key := DefaultColorKey
	e := &Extractor{
		pngScale: 1,
		colorKey: &key,
		jobs:     1,
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns the counters accumulated so far.
func (e *Extractor) Stats() Stats {
	return Stats{
		Directories: e.directories.Load(),
		Files:       e.files.Load(),
		Written:     e.written.Load(),
		Skipped:     e.skipped.Load(),
		Warnings:    e.warnings.Load(),
		PNGs:        e.pngs.Load(),
	}
}

// Extract writes the children of root under outDir, reading file contents
// from payload. Per-entry decode problems are logged and the entry is
// skipped; I/O failures abort.
func (e *Extractor) Extract(ctx context.Context, root *types.Node, payload io.ReadSeeker, outDir string) error {
	return e.extractDir(ctx, root.Children, payload, outDir)
}

// ExtractFile is Extract over the payload file at payloadPath. With more
// than one job, each top-level directory is extracted by its own worker
// holding its own handle on the payload file.
func (e *Extractor) ExtractFile(ctx context.Context, root *types.Node, payloadPath, outDir string) error {
	if e.jobs <= 1 {
		f, err := os.Open(payloadPath)
		if err != nil {
			return fmt.Errorf("failed to open payload file: %w", err)
		}
		defer f.Close()

		return e.Extract(ctx, root, f, outDir)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)

	work := func(nodes []*types.Node, dir string) func() error {
		return func() error {
			f, err := os.Open(payloadPath)
			if err != nil {
				return fmt.Errorf("failed to open payload file: %w", err)
			}
			defer f.Close()

			return e.extractDir(ctx, nodes, f, dir)
		}
	}

	var files []*types.Node
	for _, child := range root.Children {
		if !child.IsDir() {
			files = append(files, child)
			continue
		}

		dir, err := safeJoin(outDir, child.Name)
		if err != nil {
			e.warn("skipping entry", outDir, err)
			continue
		}
		e.directories.Add(1)
		g.Go(work(child.Children, dir))
	}
	if len(files) > 0 {
		g.Go(work(files, outDir))
	}

	return g.Wait()
}

func (e *Extractor) extractDir(ctx context.Context, nodes []*types.Node, payload io.ReadSeeker, dir string) error {
	if err := e.mkdir(dir); err != nil {
		return err
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		path, err := safeJoin(dir, node.Name)
		if err != nil {
			e.warn("skipping entry", dir, err)
			continue
		}

		if node.IsDir() {
			e.directories.Add(1)
			if err := e.extractDir(ctx, node.Children, payload, path); err != nil {
				return err
			}
			continue
		}

		data, err := readRange(payload, node.Offset, node.Size)
		if err != nil {
			return fmt.Errorf("failed to read %s from payload: %w", path, err)
		}
		e.files.Add(1)

		if e.verify {
			e.verifyChecksum(path, data, node.Checksum)
		}

		if err := e.processEntry(path, data, 0); err != nil {
			return err
		}
	}

	return nil
}

// readRange seeks to offset and reads exactly size bytes.
func readRange(r io.ReadSeeker, offset, size uint64) ([]byte, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (e *Extractor) verifyChecksum(path string, data []byte, sum [pac.ChecksumSize]byte) {
	switch err := pac.VerifyChecksum(data, sum); {
	case err == nil:
	case errors.Is(err, pac.ErrNoChecksum):
		e.logger.Debug("no checksum recorded", "path", path)
	default:
		e.warn("checksum mismatch", path, err)
	}
}

// processEntry dispatches one file's bytes on its classification.
func (e *Extractor) processEntry(path string, data []byte, depth int) error {
	switch Classify(path) {
	case KindCompressedArchive:
		return e.processCompressed(path, data, depth, e.recursive)
	case KindImage:
		out, err := Unwrap(data)
		if err != nil {
			return e.skip(path, err)
		}
		return e.write(path, out)
	default:
		return e.write(path, data)
	}
}

// ProcessLZS expands a loose .lzs file at inputPath as if it had been found
// in an archive at outputPath. A result holding no entry table is written
// under outputPath with its extension replaced, so outputPath may name the
// input itself.
func (e *Extractor) ProcessLZS(ctx context.Context, inputPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}
	e.files.Add(1)

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := e.mkdir(dir); err != nil {
			return err
		}
	}

	decoded, err := Decompress(data)
	if err != nil {
		return e.skip(inputPath, err)
	}

	handled, err := e.expandNested(outputPath, decoded, 0)
	if handled || err != nil {
		return err
	}

	out, err := Unwrap(decoded)
	if err != nil {
		return e.skip(inputPath, err)
	}
	return e.writeDecoded(ReplaceExt(outputPath, ExtDecoded), out)
}

// processCompressed decompresses a .lzs entry. With expand set, a flat entry
// table in the result is unpacked into separate files.
func (e *Extractor) processCompressed(path string, data []byte, depth int, expand bool) error {
	decoded, err := Decompress(data)
	if err != nil {
		return e.skip(path, err)
	}

	if expand {
		handled, err := e.expandNested(path, decoded, depth)
		if handled || err != nil {
			return err
		}
	}

	out, err := Unwrap(decoded)
	if err != nil {
		return e.skip(path, err)
	}
	return e.writeDecoded(path, out)
}

// expandNested writes the entries of a flat table in blob. It reports false
// when blob holds no table, leaving the caller to write it whole. Image data,
// plain or wrapped, is never read as a table.
func (e *Extractor) expandNested(path string, blob []byte, depth int) (bool, error) {
	if tim2.HasMagic(blob) {
		return false, nil
	}
	if _, ok := tim2.MagicOffset(blob); ok {
		return false, nil
	}

	entries, err := lzs.ReadEntries(blob)
	switch {
	case errors.Is(err, lzs.ErrInvalidFileNum):
		e.warn("invalid file number in nested archive", path, err)
		e.skipped.Add(1)
		return true, nil
	case err != nil:
		e.logger.Debug("no nested entry table", "path", path, "error", err)
		return false, nil
	case len(entries) == 0:
		return false, nil
	}

	dir := RemoveExt(path)
	if len(entries) == 1 {
		if dir, err = BasePath(path); err != nil {
			return true, err
		}
	} else if err := e.mkdir(dir); err != nil {
		return true, err
	}

	e.logger.Debug("expanding nested archive", "path", path, "entries", len(entries), "depth", depth)

	for _, entry := range entries {
		if err := e.writeNested(dir, blob, entry, depth); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (e *Extractor) writeNested(dir string, blob []byte, entry lzs.Entry, depth int) error {
	target, err := safeJoin(dir, entry.Name)
	if err != nil {
		e.warn("skipping nested entry", dir, err)
		e.skipped.Add(1)
		return nil
	}

	data, err := entry.Slice(blob)
	if err != nil {
		return e.skip(target, err)
	}

	if Classify(entry.Name) == KindCompressedArchive {
		if depth+1 >= e.maxDepth {
			e.warn("writing nested archive unexpanded", target, fmt.Errorf("%w: %d", ErrNestingTooDeep, e.maxDepth))
			return e.write(target, data)
		}
		return e.processCompressed(target, data, depth+1, true)
	}

	out, err := Unwrap(data)
	if err != nil {
		return e.skip(target, err)
	}
	return e.writeDecoded(target, out)
}

// writeDecoded writes decompressed bytes, giving image data the image
// extension.
func (e *Extractor) writeDecoded(path string, data []byte) error {
	if tim2.HasMagic(data) && Classify(path) != KindImage {
		path = ReplaceExt(path, ExtImage)
	}
	return e.write(path, data)
}

func (e *Extractor) write(path string, data []byte) error {
	if e.dryRun {
		e.logger.Debug("dry run, not writing", "path", path, "size", len(data))
		e.written.Add(1)
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	e.written.Add(1)
	e.logger.Debug("wrote file", "path", path, "size", len(data))

	if e.renderPNG && Classify(path) == KindImage {
		e.writePNG(path, data)
	}
	return nil
}

// writePNG renders an image file next to path. Failures only warn.
func (e *Extractor) writePNG(path string, data []byte) {
	img, err := tim2.Parse(data)
	if err != nil {
		e.warn("unable to decode image for PNG", path, err)
		return
	}

	ok, err := render.WriteFrame(ReplaceExt(path, ExtPNG), img, e.colorKey, e.pngScale)
	if err != nil {
		e.warn("unable to write PNG", path, err)
		return
	}
	if ok {
		e.pngs.Add(1)
	}
}

func (e *Extractor) mkdir(dir string) error {
	if e.dryRun {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// skip logs a recoverable per-entry error. Anything else is returned.
func (e *Extractor) skip(path string, err error) error {
	if !IsRecoverable(err) {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.warn("skipping entry", path, err)
	e.skipped.Add(1)
	return nil
}

func (e *Extractor) warn(msg, path string, err error) {
	e.warnings.Add(1)
	e.logger.Warn(msg, "path", path, "error", err)
}

// IsRecoverable reports whether err only affects the entry being processed.
func IsRecoverable(err error) bool {
	return errors.Is(err, lzss.ErrInvalidDecodeLength) ||
		errors.Is(err, lzs.ErrInvalidFileNum) ||
		errors.Is(err, lzs.ErrEntryRange)
}

// Decompress decodes a .lzs entry. The entry starts with a 4-byte size
// preamble ahead of the compressed stream.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < lzss.PreambleSize {
		return nil, &lzss.DecodeLengthError{Offset: len(data), Len: len(data)}
	}
	return lzss.Decode(data[lzss.PreambleSize:])
}

// Unwrap decompresses buf when it holds a compressed image, otherwise it is
// returned unchanged.
func Unwrap(buf []byte) ([]byte, error) {
	if off, ok := tim2.MagicOffset(buf); ok {
		return lzss.Decode(buf[off:])
	}
	return buf, nil
}

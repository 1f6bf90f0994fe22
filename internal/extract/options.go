package extract

import (
	"log/slog"

	"github.com/ossyrian/pacparse/internal/tim2"
)

// DefaultMaxDepth bounds how many .lzs layers are expanded inside one entry.
const DefaultMaxDepth = 4

// DefaultColorKey is the color made transparent in rendered PNGs.
var DefaultColorKey = tim2.RGB(0, 255, 0)

// Option configures an Extractor.
type Option func(*Extractor)

// WithRecursive expands flat entry tables found in decompressed .lzs
// entries instead of writing the decompressed blob as one file.
func WithRecursive(recursive bool) Option {
	return func(e *Extractor) {
		e.recursive = recursive
	}
}

// WithPNG renders a PNG next to every written .tm2 file, upscaled by scale.
func WithPNG(enabled bool, scale int) Option {
	return func(e *Extractor) {
		e.renderPNG = enabled
		e.pngScale = max(scale, 1)
	}
}

// WithColorKey sets the color made transparent in rendered PNGs. A nil key
// keeps native alpha.
func WithColorKey(key *tim2.Pixel) Option {
	return func(e *Extractor) {
		e.colorKey = key
	}
}

// WithVerify checks each file's payload bytes against its stored checksum.
func WithVerify(verify bool) Option {
	return func(e *Extractor) {
		e.verify = verify
	}
}

// WithJobs sets how many top-level subtrees ExtractFile processes at once.
func WithJobs(jobs int) Option {
	return func(e *Extractor) {
		e.jobs = max(jobs, 1)
	}
}

// WithMaxDepth bounds nested .lzs expansion.
func WithMaxDepth(depth int) Option {
	return func(e *Extractor) {
		e.maxDepth = max(depth, 1)
	}
}

// WithDryRun decodes everything but writes nothing.
func WithDryRun(dryRun bool) Option {
	return func(e *Extractor) {
		e.dryRun = dryRun
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

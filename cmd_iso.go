package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pacparse/internal/iso"
)

var isoCmd = &cobra.Command{
	Use:   "iso <disc.iso>",
	Short: "Copy the archive files out of a UMD disc image",
	Long: `Copies PAC0.BIN, PAC1.BIN and EBOOT.BIN from a disc image into the output
directory, ready for "pacparse extract", and the movie files into movies/.`,
	Args: cobra.ExactArgs(1),
	RunE: runISO,
}

func runISO(cmd *cobra.Command, args []string) error {
	disc, err := iso.Open(args[0])
	if err != nil {
		return err
	}
	defer disc.Close()

	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if !cfg.DryRun {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	wanted := []struct {
		path     string
		required bool
	}{
		{iso.MetadataPath, true},
		{iso.PayloadPath, true},
		{iso.EbootPath, false},
	}

	for _, w := range wanted {
		data, err := disc.ExtractNamedFile(w.path)
		if errors.Is(err, iso.ErrNotFound) && !w.required {
			slog.Warn("file not on disc", "path", w.path)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", w.path, err)
		}

		out := filepath.Join(outDir, path.Base(w.path))
		if cfg.DryRun {
			slog.Info("found file", "path", w.path, "size", len(data))
			continue
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		slog.Info("copied file", "path", w.path, "output", out, "size", len(data))
	}

	return copyMovies(disc, filepath.Join(outDir, "movies"))
}

// copyMovies copies every file of the disc's movie directory into outDir.
// A disc without one is not an error.
func copyMovies(disc *iso.Disc, outDir string) error {
	names, err := disc.ListFiles(iso.MovieDir)
	if errors.Is(err, iso.ErrNotFound) {
		slog.Warn("no movie directory on disc", "path", iso.MovieDir)
		return nil
	}
	if err != nil {
		return err
	}

	if !cfg.DryRun && len(names) > 0 {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create movie directory: %w", err)
		}
	}

	for _, name := range names {
		src := path.Join(iso.MovieDir, name)
		data, err := disc.ExtractNamedFile(src)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", src, err)
		}

		out := filepath.Join(outDir, name)
		if cfg.DryRun {
			slog.Info("found movie", "path", src, "size", len(data))
			continue
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		slog.Info("copied movie", "path", src, "output", out, "size", len(data))
	}

	return nil
}

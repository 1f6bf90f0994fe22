package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pacparse/internal/extract"
	"github.com/ossyrian/pacparse/internal/render"
	"github.com/ossyrian/pacparse/internal/tim2"
)

var pngCmd = &cobra.Command{
	Use:   "png <file.tm2>...",
	Short: "Render TIM2 images to PNG",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPNG,
}

func runPNG(cmd *cobra.Command, args []string) error {
	key, err := cfg.Key()
	if err != nil {
		return err
	}

	if cfg.OutputDir != "" && !cfg.DryRun {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var rendered, failed int
	for _, path := range args {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		out := extract.ReplaceExt(path, extract.ExtPNG)
		if cfg.OutputDir != "" {
			out = filepath.Join(cfg.OutputDir, filepath.Base(out))
		}

		img, err := tim2.Load(path)
		if err != nil {
			slog.Warn("unable to decode image", "path", path, "error", err)
			failed++
			continue
		}

		if cfg.DryRun {
			slog.Info("decoded image", "path", path, "frames", len(img.Frames))
			continue
		}

		ok, err := render.WriteFrame(out, img, key, max(cfg.PNGScale, 1))
		if err != nil {
			slog.Warn("unable to write PNG", "path", out, "error", err)
			failed++
			continue
		}
		if !ok {
			slog.Info("image not rendered", "path", path, "reason", "mipmapped or empty")
			continue
		}

		slog.Debug("wrote PNG", "path", out)
		rendered++
	}

	slog.Info("done", "rendered", rendered, "failed", failed)
	return nil
}

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pacparse/internal/parser"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract every file in the archive",
	Args:  cobra.NoArgs,
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().Bool("verify", false, "check each file against its stored SHA-256 checksum")
	extractCmd.Flags().IntP("jobs", "j", 1, "top-level directories extracted in parallel")

	bindFlags(extractCmd.Flags().Lookup, map[string]string{
		"verify": "verify",
		"jobs":   "jobs",
	})
}

// runExtract loads the metadata tree and writes every file under the output directory
func runExtract(cmd *cobra.Command, args []string) error {
	slog.Info("reading metadata", "path", cfg.MetadataPath())

	meta, err := parser.Load(cfg.MetadataPath(), cfg.Root(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.MetadataPath(), err)
	}

	e, err := newExtractor()
	if err != nil {
		return err
	}

	start := time.Now()
	slog.Info("extracting",
		"payload", cfg.PayloadPath(),
		"output", cfg.OutputPath(),
		"files", meta.Root.CountFiles(),
		"dry_run", cfg.DryRun,
	)

	if err := e.ExtractFile(cmd.Context(), meta.Root, cfg.PayloadPath(), cfg.OutputPath()); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	logStats(e.Stats())
	slog.Debug("extraction finished", "elapsed", time.Since(start))

	return nil
}

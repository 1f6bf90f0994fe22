package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var lzsCmd = &cobra.Command{
	Use:   "lzs <file.lzs>...",
	Short: "Decompress loose .lzs files and unpack their entries",
	Long: `Decompresses each .lzs file. Bundles of several entries are unpacked into a
directory named after the file; a single entry is written beside it. Output
goes next to each input unless --output is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLZS,
}

func runLZS(cmd *cobra.Command, args []string) error {
	e, err := newExtractor()
	if err != nil {
		return err
	}

	for _, path := range args {
		out := path
		if cfg.OutputDir != "" {
			out = filepath.Join(cfg.OutputDir, filepath.Base(path))
		}

		if err := e.ProcessLZS(cmd.Context(), path, out); err != nil {
			return fmt.Errorf("failed to process %s: %w", path, err)
		}
	}

	logStats(e.Stats())
	return nil
}

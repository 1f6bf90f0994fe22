package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ossyrian/pacparse/internal/parser"
	"github.com/ossyrian/pacparse/internal/types"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "List the archive's metadata tree",
	Args:  cobra.NoArgs,
	RunE:  runTree,
}

func runTree(cmd *cobra.Command, args []string) error {
	meta, err := parser.Load(cfg.MetadataPath(), cfg.Root(), slog.Default())
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cfg.MetadataPath(), err)
	}

	return printTree(cmd.OutOrStdout(), meta.Root)
}

// printTree writes one line per node: path, offset and size for files.
func printTree(w io.Writer, root *types.Node) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tOFFSET\tSIZE")

	root.Walk(func(path string, n *types.Node) bool {
		if path == "" {
			path = root.Name
		} else {
			path = root.Name + "/" + path
		}

		if n.IsDir() {
			fmt.Fprintf(tw, "%s/\t\t\n", path)
		} else {
			fmt.Fprintf(tw, "%s\t0x%08X\t%d\n", path, n.Offset, n.Size)
		}
		return true
	})

	return tw.Flush()
}

package main

import (
	"github.com/spf13/cobra"

	"github.com/fiscaltools/painel-nfse/internal/tui"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse <path>",
		Short: "Ingest documents and browse them interactively",
		Long: `Ingest every NFS-e XML reachable from a path and open the interactive
panel: filter as you type, sort columns, inspect diagnostics and see running
totals of the visible rows.`,
		Args: cobra.ExactArgs(1),
		RunE: runBrowse,
	}

	cmd.Flags().IntP("workers", "w", 0, "normalization workers (default: one per CPU)")

	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")

	// The panel only ever opens over a completed ingest.
	rs, err := ingestPath(cmd, args[0], workers, true)
	if err != nil {
		return err
	}

	return tui.Run(rs)
}

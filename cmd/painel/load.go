package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/fiscaltools/painel-nfse/internal/common"
	"github.com/fiscaltools/painel-nfse/internal/export"
	"github.com/fiscaltools/painel-nfse/internal/filter"
	"github.com/fiscaltools/painel-nfse/internal/ingest"
	"github.com/fiscaltools/painel-nfse/internal/model"
)

func loadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <path>",
		Short: "Ingest NFS-e XML documents and summarize the result",
		Long: `Ingest every NFS-e XML reachable from a path (a directory, a .zip archive
or a single .xml file), normalize the documents into canonical records and
print a summary.

Examples:
  # Load a whole download folder (recursive, zips included)
  painel load ~/Downloads/notas/

  # Load one archive and export the records as CSV
  painel load notas-2023.zip --csv notas.csv

  # Load and keep only January 2023 invoices of one payer
  painel load notas/ --filter "doc=12.345.678 date=2023-01-01..2023-01-31"`,
		Args: cobra.ExactArgs(1),
		RunE: runLoad,
	}

	cmd.Flags().StringP("filter", "f", "", "filter query applied to the loaded records")
	cmd.Flags().String("csv", "", "write the (filtered) records to a CSV file")
	cmd.Flags().IntP("workers", "w", 0, "normalization workers (default: one per CPU)")
	cmd.Flags().BoolP("verbose", "v", false, "log every diagnostic, not just the summary")

	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	filterQuery, _ := cmd.Flags().GetString("filter")
	csvPath, _ := cmd.Flags().GetString("csv")
	workers, _ := cmd.Flags().GetInt("workers")
	verbose, _ := cmd.Flags().GetBool("verbose")

	// Reject a malformed filter before doing any work.
	pred, err := filter.Parse(filterQuery)
	if err != nil {
		return common.NewUserError("invalid --filter query", err)
	}

	rs, err := ingestPath(cmd, args[0], workers, true)
	if err != nil {
		return err
	}

	if verbose {
		for _, d := range rs.Diagnostics {
			logDiagnostic(d)
		}
	}

	records := filter.Evaluate(rs, pred)
	slog.Info("load summary",
		"records", len(rs.Invoices),
		"matching", len(records),
		"errors", rs.ErrorCount(),
		"warnings", rs.WarningCount())

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", csvPath, err)
		}
		defer func() { _ = f.Close() }()
		if err := export.WriteCSV(f, records); err != nil {
			return fmt.Errorf("export csv: %w", err)
		}
		slog.Info("csv written", "path", csvPath, "rows", len(records))
	}

	return nil
}

// ingestPath discovers and ingests all documents under path. The returned
// record set is complete: a canceled ingest yields an error, never a partial
// set.
func ingestPath(cmd *cobra.Command, path string, workers int, progress bool) (*model.RecordSet, error) {
	fieldMap, err := fieldMapFromConfig()
	if err != nil {
		return nil, err
	}

	sources, err := ingest.Discover(path)
	if err != nil {
		return nil, common.NewUserError("could not read input", err)
	}
	if len(sources) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("no XML documents found under %s", path), common.ErrNoInput)
	}

	slog.Info("ingesting documents", "path", path, "documents", len(sources))

	session := ingest.NewSession(fieldMap, workers)
	if progress {
		bar := newIngestBar(len(sources))
		session.OnProgress = func() {
			if err := bar.Add(1); err != nil {
				common.LogDebug("progress bar update failed", common.Fields{"error": err})
			}
		}
	}

	rs, err := session.Run(cmd.Context(), sources)
	if err != nil {
		return nil, common.NewUserError("ingest did not complete", err)
	}
	return rs, nil
}

func newIngestBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Normalizing documents...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// logDiagnostic routes a diagnostic through the structured logger, where the
// masking layer scrubs any taxpayer identifiers its message carries.
func logDiagnostic(d model.Diagnostic) {
	fields := common.Fields{"source": d.SourceFile, "detail": d.Message}
	if len(d.UnresolvedPaths) > 0 {
		fields["unresolved_paths"] = d.UnresolvedPaths
	}
	if d.Severity == model.SeverityError {
		common.LogError(common.ErrMalformedDocument, "document failed", fields)
		return
	}
	common.LogInfo("document flagged", fields)
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/fiscaltools/painel-nfse/internal/common"
	"github.com/fiscaltools/painel-nfse/internal/dialect"
	"github.com/fiscaltools/painel-nfse/internal/model"
	"github.com/fiscaltools/painel-nfse/internal/normalize"
)

// Session normalizes one batch of sources into a record set. Documents are
// independent, so normalization fans out over workers; results land in a
// per-document slot and a single merge step appends them in discovery order,
// so the final record set is identical run to run regardless of scheduling.
type Session struct {
	fieldMap dialect.Map
	workers  int

	// OnProgress, when set, is called once per finished document. It must be
	// safe for concurrent use; the progress bar wired in by the CLI is.
	OnProgress func()
}

// NewSession creates an ingest session over the given field map. workers <= 0
// means one worker per CPU.
func NewSession(fieldMap dialect.Map, workers int) *Session {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Session{fieldMap: fieldMap, workers: workers}
}

type result struct {
	invoice *model.Invoice
	diags   []model.Diagnostic
}

// Run ingests all sources and returns the completed record set. Cancellation
// discards the whole run: a partially accumulated set is never returned.
func (s *Session) Run(ctx context.Context, sources []Source) (*model.RecordSet, error) {
	if len(sources) == 0 {
		return nil, common.ErrNoInput
	}

	results := make([]result, len(sources))
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < s.workers; w++ {
		g.Go(func() error {
			for idx := range jobs {
				src := sources[idx]
				inv, diags := normalize.Bytes(src.Data, s.fieldMap, src.Name)
				results[idx] = result{invoice: inv, diags: diags}
				if s.OnProgress != nil {
					s.OnProgress()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for idx := range sources {
			select {
			case jobs <- idx:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIngestCanceled, err)
	}

	// Single-writer merge in discovery order.
	rs := &model.RecordSet{}
	for _, r := range results {
		if r.invoice != nil {
			rs.Invoices = append(rs.Invoices, *r.invoice)
		}
		rs.Diagnostics = append(rs.Diagnostics, r.diags...)
	}

	slog.Info("ingest complete",
		"documents", len(sources),
		"records", len(rs.Invoices),
		"errors", rs.ErrorCount(),
		"warnings", rs.WarningCount())

	return rs, nil
}

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/ferredist/catalog-service/internal/catalog"
	"github.com/ferredist/catalog-service/internal/metrics"
	"github.com/ferredist/catalog-service/internal/pkg/cuid2"
	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/store"
	"github.com/ferredist/catalog-service/internal/types"
	"github.com/ferredist/catalog-service/internal/workbook"
)

// ErrBusy is returned when a run is requested while another is in
// progress. Runs mutate the whole catalog, so they are strictly
// serialized; callers surface this as a retryable conflict.
var ErrBusy = errors.New("a reconcile run is already in progress")

// Options configures the engine from the service config.
type Options struct {
	Template        string
	DefaultDiscount float64
	MaxDiscount     float64
	ExchangeRate    float64
	MaxRowErrors    int
}

// Params describes one requested run.
type Params struct {
	// File is the path of the supplier price list to reconcile
	File string
	// Template overrides the configured default layout when set
	Template string
	// DiscountOverride is the raw operator-supplied discount, empty when
	// the sheet or default should decide
	DiscountOverride string
	// Source records what triggered the run
	Source types.RunSource
}

// Engine runs price reconciliations: extract the supplier sheet, price
// every row, merge into the catalog and commit atomically, recording a
// run audit trail throughout.
type Engine struct {
	catalogStore store.Store
	runs         RunStore
	calculator   *pricing.Calculator
	opts         Options
	sem          *semaphore.Weighted
}

// NewEngine builds an engine. The margin schedule is validated here so a
// misconfigured tier table fails at startup, not mid-run.
func NewEngine(catalogStore store.Store, runs RunStore, schedule *pricing.Schedule, opts Options) (*Engine, error) {
	if catalogStore == nil {
		return nil, fmt.Errorf("engine: catalog store is required")
	}
	if runs == nil {
		return nil, fmt.Errorf("engine: run store is required")
	}
	calc, err := pricing.NewCalculator(schedule, opts.ExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if opts.Template == "" {
		return nil, fmt.Errorf("engine: default template is required")
	}
	if !workbook.IsValidLayout(opts.Template) {
		return nil, fmt.Errorf("engine: unknown default template %q", opts.Template)
	}
	return &Engine{
		catalogStore: catalogStore,
		runs:         runs,
		calculator:   calc,
		opts:         opts,
		sem:          semaphore.NewWeighted(1),
	}, nil
}

// Runs exposes the run store for the history API and maintenance loops.
func (e *Engine) Runs() RunStore {
	return e.runs
}

// Run executes one reconciliation. Only one run proceeds at a time;
// concurrent requests get ErrBusy immediately instead of queueing, so an
// operator never stacks accidental double-submits.
func (e *Engine) Run(ctx context.Context, p Params) (*types.RunResult, error) {
	if !e.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer e.sem.Release(1)

	started := time.Now().UTC()
	template := p.Template
	if template == "" {
		template = e.opts.Template
	}

	layout, err := workbook.GetLayout(template)
	if err != nil {
		return nil, err
	}
	if p.File == "" {
		return nil, fmt.Errorf("no price list file specified")
	}

	run := &types.RunRecord{
		ID:           cuid2.GeneratePrefixedId("run"),
		Status:       types.StatusRunning,
		Source:       p.Source,
		WorkbookFile: filepath.Base(p.File),
		Template:     template,
		StartedAt:    started,
	}
	if err := e.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	result, runErr := e.execute(ctx, p, layout, run)
	completed := time.Now().UTC()
	run.CompletedAt = &completed

	if runErr != nil {
		run.Status = types.StatusFailed
		run.ErrorMessage = types.StringPtr(runErr.Error())
		if err := e.runs.Finish(ctx, run); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record failed run")
		}
		metrics.ObserveRun(string(types.StatusFailed), string(p.Source), completed.Sub(started))
		return nil, fmt.Errorf("run %s: %w", run.ID, runErr)
	}

	run.Status = types.StatusCompleted
	if err := e.runs.Finish(ctx, run); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record completed run")
	}
	metrics.ObserveRun(string(types.StatusCompleted), string(p.Source), completed.Sub(started))

	result.Success = true
	result.RunID = run.ID
	result.StartedAt = started
	result.CompletedAt = &completed

	log.Info().
		Str("run_id", run.ID).
		Str("template", template).
		Int("rows_read", result.RowsRead).
		Int("rows_rejected", result.RowsRejected).
		Int("updated", result.Updated).
		Int("created", result.Created).
		Int("missing", result.Missing).
		Float64("discount", result.Discount).
		Str("discount_source", string(result.DiscountSource)).
		Dur("duration", completed.Sub(started)).
		Msg("Reconcile run completed")

	return result, nil
}

// execute does the extract, price, merge and commit work. Any error it
// returns fails the whole run; the catalog is only written at the end, so
// a failed run leaves it exactly as it was.
func (e *Engine) execute(ctx context.Context, p Params, layout *workbook.Layout, run *types.RunRecord) (*types.RunResult, error) {
	extractor := workbook.NewExtractor(layout, e.opts.MaxRowErrors)

	var (
		extract      *types.ExtractResult
		discount     float64
		source       types.DiscountSource
		discountWarn string
		err          error
	)

	if layout.CSV || strings.EqualFold(filepath.Ext(p.File), ".csv") {
		extract, err = extractor.ExtractCSVFile(p.File)
		if err != nil {
			return nil, err
		}
		// CSV templates have no discount cell
		discount, source, discountWarn = workbook.ResolveDiscount(nil, layout, p.DiscountOverride, e.opts.DefaultDiscount, e.opts.MaxDiscount)
	} else {
		f, err := workbook.OpenWorkbook(p.File)
		if err != nil {
			return nil, err
		}
		discount, source, discountWarn = workbook.ResolveDiscount(f, layout, p.DiscountOverride, e.opts.DefaultDiscount, e.opts.MaxDiscount)
		extract, err = extractor.Extract(f)
		closeErr := f.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			log.Warn().Err(closeErr).Str("file", p.File).Msg("Failed to close workbook")
		}
	}

	if extract.ValidRows == 0 {
		return nil, fmt.Errorf("no usable rows in %s (total %d, rejected %d)",
			filepath.Base(p.File), extract.TotalRows, extract.TotalRows-extract.ValidRows)
	}

	rowErrors := extract.Errors
	priced := make([]catalog.PricedRow, 0, len(extract.Rows))
	for _, row := range extract.Rows {
		quote, err := e.calculator.Compute(row, discount, layout.BsIncludesDiscount)
		if err != nil {
			if e.opts.MaxRowErrors <= 0 || len(rowErrors) < e.opts.MaxRowErrors {
				rowErrors = append(rowErrors, types.RowError{
					RowNumber: row.RowNumber,
					Field:     types.StringPtr("price"),
					Message:   err.Error(),
				})
			}
			continue
		}
		priced = append(priced, catalog.PricedRow{Row: row, Quote: *quote})
	}
	if len(priced) == 0 {
		return nil, fmt.Errorf("no rows survived pricing in %s", filepath.Base(p.File))
	}

	entries, err := e.catalogStore.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stats := catalog.Merge(entries, priced, discount, now)

	if err := e.catalogStore.Commit(ctx, entries); err != nil {
		return nil, err
	}

	rejected := extract.TotalRows - len(priced)
	metrics.ObserveRows(len(priced), rejected)
	metrics.ObserveMerge(stats.Updated, stats.Created, stats.Missing, len(entries))

	warnings := extract.Warnings
	var runWarnings []string
	if discountWarn != "" {
		warnings = append(warnings, types.RowWarning{Message: discountWarn})
		runWarnings = append(runWarnings, discountWarn)
	}

	run.Discount = discount
	run.DiscountSource = source
	run.RowsRead = extract.TotalRows
	run.RowsRejected = rejected
	run.Updated = stats.Updated
	run.Created = stats.Created
	run.Missing = stats.Missing
	run.Detail = &types.RunDetail{
		MissingCodes: stats.MissingCodes,
		CreatedCodes: stats.CreatedCodes,
		RowErrors:    rowErrors,
		Warnings:     warnings,
	}

	return &types.RunResult{
		Message:        fmt.Sprintf("reconciled %d rows into %d catalog entries", len(priced), len(entries)),
		WorkbookFile:   filepath.Base(p.File),
		Template:       layout.Name,
		RowsRead:       extract.TotalRows,
		RowsRejected:   rejected,
		Updated:        stats.Updated,
		Created:        stats.Created,
		Missing:        stats.Missing,
		MissingCodes:   stats.MissingCodes,
		CreatedCodes:   stats.CreatedCodes,
		Discount:       discount,
		DiscountSource: source,
		Warnings:       runWarnings,
		RowErrors:      rowErrors,
	}, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/reconcile"
	"github.com/ferredist/catalog-service/internal/store"
	"github.com/ferredist/catalog-service/internal/types"
	"github.com/ferredist/catalog-service/internal/workbook"
)

var (
	reconcileDiscount string
	reconcileTemplate string
	reconcileDryRun   bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile <file>",
	Short: "Reconcile a supplier price list into the catalog",
	Long: `Run a full reconciliation: extract the supplier price list, resolve the
discount, recompute web prices with the margin schedule and merge the result
into the configured catalog store.

The discount override accepts either a percentage ("20") or a fraction ("0.20").
When omitted, the discount cell in the workbook's order sheet is used, falling
back to the configured default.`,
	Example: `  catalog-service reconcile ./lista-precios.xlsx
  catalog-service reconcile ./lista-precios.xlsx --discount 25
  catalog-service reconcile ./lista.csv --template generic-csv`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&reconcileDiscount, "discount", "", "Discount override, percentage or fraction")
	reconcileCmd.Flags().StringVar(&reconcileTemplate, "template", "", "Workbook template (default from config)")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Extract and price without committing the catalog")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	ctx := context.Background()

	if reconcileTemplate != "" && !workbook.IsValidLayout(reconcileTemplate) {
		return fmt.Errorf("unknown template %q\nValid templates: %s",
			reconcileTemplate, strings.Join(workbook.LayoutNames(), ", "))
	}

	if reconcileDryRun {
		return runInspect(cmd, args)
	}

	catalogStore, runStore, mode, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer catalogStore.Close()
	if mode == store.ModePostgres {
		defer database.Close()
	}

	schedule, err := pricing.NewSchedule(cfg.Reconcile.MarginTiers)
	if err != nil {
		return fmt.Errorf("invalid margin schedule: %w", err)
	}

	engine, err := reconcile.NewEngine(catalogStore, runStore, schedule, reconcile.Options{
		Template:        cfg.Reconcile.Template,
		DefaultDiscount: cfg.Reconcile.DefaultDiscount,
		MaxDiscount:     cfg.Reconcile.MaxDiscount,
		ExchangeRate:    cfg.Reconcile.ExchangeRate,
		MaxRowErrors:    cfg.Reconcile.MaxRowErrors,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("file", filePath).Str("store", string(mode)).Msg("Starting reconciliation")

	result, err := engine.Run(ctx, reconcile.Params{
		File:             filePath,
		Template:         reconcileTemplate,
		DiscountOverride: reconcileDiscount,
		Source:           types.SourceCLI,
	})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	printRunResult(result)
	return nil
}

func printRunResult(result *types.RunResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Run ID:\t%s\n", result.RunID)
	fmt.Fprintf(w, "Template:\t%s\n", result.Template)
	fmt.Fprintf(w, "Discount:\t%.2f%% (%s)\n", result.Discount*100, result.DiscountSource)
	fmt.Fprintf(w, "Rows read:\t%d\n", result.RowsRead)
	fmt.Fprintf(w, "Rows rejected:\t%d\n", result.RowsRejected)
	fmt.Fprintf(w, "Entries updated:\t%d\n", result.Updated)
	fmt.Fprintf(w, "Entries created:\t%d\n", result.Created)
	fmt.Fprintf(w, "Codes missing from sheet:\t%d\n", result.Missing)
	w.Flush()

	if len(result.RowErrors) > 0 {
		fmt.Printf("\nRejected rows:\n")
		for _, re := range result.RowErrors {
			field := ""
			if re.Field != nil {
				field = " [" + *re.Field + "]"
			}
			fmt.Printf("  row %d%s: %s\n", re.RowNumber, field, re.Message)
		}
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ferredist/catalog-service/internal/pricing"
	"github.com/ferredist/catalog-service/internal/types"
	"github.com/ferredist/catalog-service/internal/workbook"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Extract and price a supplier file without touching the catalog",
	Long: `Extract a supplier price list, resolve the discount and compute web prices,
then print the result without committing anything. Useful for checking a new
supplier file before running a real reconciliation.`,
	Example: `  catalog-service inspect ./lista-precios.xlsx
  catalog-service inspect ./lista.csv --template generic-csv --discount 25`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&reconcileDiscount, "discount", "", "Discount override, percentage or fraction")
	inspectCmd.Flags().StringVar(&reconcileTemplate, "template", "", "Workbook template (default from config)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	if cfg == nil {
		return fmt.Errorf("config required but not loaded")
	}

	templateName := reconcileTemplate
	if templateName == "" {
		templateName = cfg.Reconcile.Template
	}
	layout, err := workbook.GetLayout(templateName)
	if err != nil {
		return fmt.Errorf("%w\nValid templates: %s", err, strings.Join(workbook.LayoutNames(), ", "))
	}

	extractor := workbook.NewExtractor(layout, cfg.Reconcile.MaxRowErrors)

	var result *types.ExtractResult
	var discount float64
	var discountSource types.DiscountSource
	var discountWarn string

	if layout.CSV || strings.EqualFold(filepath.Ext(filePath), ".csv") {
		discount, discountSource, discountWarn = workbook.ResolveDiscount(nil, layout, reconcileDiscount,
			cfg.Reconcile.DefaultDiscount, cfg.Reconcile.MaxDiscount)
		result, err = extractor.ExtractCSVFile(filePath)
		if err != nil {
			return err
		}
	} else {
		f, err := workbook.OpenWorkbook(filePath)
		if err != nil {
			return err
		}
		defer f.Close()

		discount, discountSource, discountWarn = workbook.ResolveDiscount(f, layout, reconcileDiscount,
			cfg.Reconcile.DefaultDiscount, cfg.Reconcile.MaxDiscount)
		result, err = extractor.Extract(f)
		if err != nil {
			return err
		}
	}

	schedule, err := pricing.NewSchedule(cfg.Reconcile.MarginTiers)
	if err != nil {
		return fmt.Errorf("invalid margin schedule: %w", err)
	}
	calc, err := pricing.NewCalculator(schedule, cfg.Reconcile.ExchangeRate)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Template:\t%s\n", layout.Name)
	fmt.Fprintf(w, "Discount:\t%.2f%% (%s)\n", discount*100, discountSource)
	if discountWarn != "" {
		fmt.Fprintf(w, "Warning:\t%s\n", discountWarn)
	}
	fmt.Fprintf(w, "Rows scanned:\t%d\n", result.TotalRows)
	fmt.Fprintf(w, "Valid rows:\t%d\n", result.ValidRows)
	fmt.Fprintf(w, "Rejected rows:\t%d\n", len(result.Errors))
	w.Flush()

	fmt.Printf("\nSample prices:\n")
	pw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(pw, "CODE\tDESCRIPTION\tCOST BS\tMARGIN\tWEB BS\n")
	for i, row := range result.Rows {
		if i >= 10 {
			fmt.Fprintf(pw, "... and %d more rows\n", len(result.Rows)-i)
			break
		}
		quote, err := calc.Compute(row, discount, layout.BsIncludesDiscount)
		if err != nil {
			fmt.Fprintf(pw, "%s\t%s\t-\t-\t(%v)\n", row.Code, row.Description, err)
			continue
		}
		fmt.Fprintf(pw, "%s\t%s\t%.2f\t%.0f%%\t%.2f\n",
			row.Code, row.Description, quote.CostBs, quote.Margin*100, quote.WebPriceBs)
	}
	pw.Flush()

	if len(result.Errors) > 0 {
		fmt.Printf("\nRejected rows:\n")
		for _, re := range result.Errors {
			field := ""
			if re.Field != nil {
				field = " [" + *re.Field + "]"
			}
			fmt.Printf("  row %d%s: %s\n", re.RowNumber, field, re.Message)
		}
	}

	return nil
}

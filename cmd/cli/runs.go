package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferredist/catalog-service/internal/database"
	"github.com/ferredist/catalog-service/internal/store"
)

var runsLimit int

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent reconciliation runs",
	Long: `List recent reconciliation runs from the configured run store, newest
first, with their status and merge counters.`,
	Example: `  catalog-service runs
  catalog-service runs --limit 50`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	catalogStore, runStore, mode, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer catalogStore.Close()
	if mode == store.ModePostgres {
		defer database.Close()
	}

	runs, err := runStore.List(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No reconciliation runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSTATUS\tSOURCE\tSTARTED\tROWS\tCREATED\tUPDATED\tMISSING\n")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID, run.Status, run.Source,
			run.StartedAt.Local().Format(time.RFC3339),
			run.RowsRead, run.Created, run.Updated, run.Missing)
	}
	w.Flush()

	return nil
}

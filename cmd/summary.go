package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <class-id>",
	Short: "Print the attendance summary for a class",
	Long: `Print the attendance summary for a class.

By default the rows written on the last session close are shown. With
--recompute the summary is replayed from the full event log first, which
also repairs a summary lost to a failed write on close.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().Bool("recompute", false, "Replay the event log and rewrite the summary first")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	classID := args[0]
	recompute := mustGetBool(cmd, "recompute")

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	pool := postgres.GetGlobalPool()
	defer pool.Close()
	store := postgres.NewStore(pool)

	ctx := context.Background()
	class, err := store.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class == nil {
		return fmt.Errorf("class %s not found", classID)
	}

	var rows []database.SummaryRow
	if recompute {
		events, err := store.LoadLedger(ctx, classID)
		if err != nil {
			return err
		}
		roster, err := store.GetRoster(ctx, classID)
		if err != nil {
			return err
		}
		rows = ledger.BuildSummary(events, roster)
		if err := store.WriteSummary(ctx, classID, rows); err != nil {
			return err
		}
		fmt.Printf("Recomputed summary from %d events\n", len(events))
	} else {
		rows, err = store.GetSummary(ctx, classID)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Class: %s (%s)\n", class.Name, class.ID)
	if len(rows) == 0 {
		fmt.Println("No summary yet; close a session or run with --recompute")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tDATE\tPRESENT\tABSENT\tTOTAL")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			row.Name, row.IdentityID, row.Date, row.PresentCount, row.AbsentCount, row.TotalClasses)
	}
	return w.Flush()
}

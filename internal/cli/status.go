package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/infra/storage/sqlstore"
)

var statusSince time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the audit summary of classifications and replay outcomes",
	Run:   runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusSince, "since", 24*time.Hour, "summarise records newer than this")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if !cfg.Database.Enabled() {
		slog.Error("No audit database configured (database.url is empty)")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := sqlstore.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	summary, err := sqlstore.NewAuditRepo(db).Summary(ctx, time.Now().Add(-statusSince))
	if err != nil {
		slog.Error("Failed to query summary", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "METRIC\tVALUE")
	states := make([]string, 0, len(summary.States))
	for state := range summary.States {
		states = append(states, string(state))
	}
	sort.Strings(states)
	for _, state := range states {
		_, _ = fmt.Fprintf(w, "state %s\t%d\n", state, summary.States[domain.ItemState(state)])
	}
	_, _ = fmt.Fprintf(w, "rated\t%d\n", summary.RatedCount)
	_, _ = fmt.Fprintf(w, "average rating\t%.2f\n", summary.AverageRating)
	_, _ = fmt.Fprintf(w, "replay succeeded\t%d\n", summary.ReplaySucceeded)
	for reason, count := range summary.ReplayFailures {
		_, _ = fmt.Fprintf(w, "replay failed (%s)\t%d\n", reason, count)
	}
	_ = w.Flush()
}

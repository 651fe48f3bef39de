package cli

import (
	"encoding/json"
	"fmt"

	"github.com/chxlky/trello-pm/database"
	"github.com/chxlky/trello-pm/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	statusDryRun bool
	statusJSON   bool
	statusDB     string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report on the doing list and close completed cards",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusDryRun, "dry-run", false, "Classify only; do not comment on or move cards")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the report as JSON")
	statusCmd.Flags().StringVar(&statusDB, "db", "", "Also save the report to this SQLite snapshot file")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	opts := []tracker.Option{tracker.WithDryRun(statusDryRun)}
	if statusDB != "" {
		db, err := database.Open(statusDB)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		opts = append(opts, tracker.WithRecorder(database.NewStore(db)))
	}

	rep, err := tracker.New(s.client, s.cfg, s.board, opts...).Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	summary := rep.Summary()
	if summary == "" {
		summary = fmt.Sprintf("No cards to report on %q.\n", s.board.Doing.Name)
	}
	fmt.Fprint(out, summary)
	return nil
}

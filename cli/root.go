package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chxlky/trello-pm/integrations"
	"github.com/chxlky/trello-pm/internal/config"
	"github.com/chxlky/trello-pm/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "trello-pm",
	Short: "Classify the cards of a Trello doing list and close finished ones",
	Long: `trello-pm reads the board described by $TRELLO_CONFIG_FILE, sorts every card on
its doing list into complete, in progress, overdue, idle or needs-more-details,
and moves cards whose checklists are all ticked to the done list.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

var errNotConfigured = errors.New("trello is not configured; run `trello-pm doctor` for details")

type session struct {
	cfg    *config.Config
	client *integrations.TrelloClient
	board  *tracker.Board
}

// connect checks the environment, loads the config and resolves the board.
func connect(ctx context.Context) (*session, error) {
	if !config.APIKeySet() || !config.ConfigFileExists() {
		return nil, errNotConfigured
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	client := integrations.NewTrelloClient(cfg.APIKey, cfg.APIToken, cfg.Server.CallbackURL)
	if cfg.APIURL != "" {
		client.BaseURL = cfg.APIURL
	}
	board, err := tracker.Resolve(ctx, client, cfg)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Connected to Trello", zap.String("board", board.Name), zap.String("user", cfg.UserName))
	return &session{cfg: cfg, client: client, board: board}, nil
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chxlky/trello-pm/api"
	"github.com/chxlky/trello-pm/database"
	"github.com/chxlky/trello-pm/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over HTTP and re-classify on Trello webhooks",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := connect(ctx)
	if err != nil {
		return err
	}

	db, err := database.Open(s.cfg.Database.Path)
	if err != nil {
		return err
	}
	sqlDB, _ := db.DB()
	store := database.NewStore(db)

	tr := tracker.New(s.client, s.cfg, s.board, tracker.WithRecorder(store))
	apiHandler := &api.Handler{Runner: tr, Snapshot: store}
	router := api.NewRouter(zap.L(), apiHandler)

	srv := &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: router,
	}

	zap.L().Info("Starting server", zap.String("port", s.cfg.Server.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server error", zap.Error(err))
		}
	}()

	// Give the server a moment to start before Trello probes the callback URL
	time.Sleep(250 * time.Millisecond)

	var webhookID string
	if s.cfg.Server.CallbackURL != "" {
		webhookID, err = s.client.RegisterWebhook(ctx, s.board.ID)
		if err != nil {
			zap.L().Error("Failed to register webhook; continuing without it", zap.String("boardID", s.board.ID), zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := shutdownOnSignal(sigCh, func(reason string) {
		zap.L().Info("Shutdown initiated", zap.String("reason", reason))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Error shutting down server", zap.Error(err))
		} else {
			zap.L().Info("HTTP server shut down gracefully.")
		}

		if webhookID != "" {
			if err := s.client.DeleteWebhook(shutdownCtx, webhookID); err != nil {
				zap.L().Error("Error deleting webhook for board", zap.String("boardID", s.board.ID), zap.Error(err))
			}
		}

		if sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				zap.L().Error("Error closing database", zap.Error(err))
			}
		}
	}, os.Exit)

	<-done
	zap.L().Info("Exiting...")
	return nil
}

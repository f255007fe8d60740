package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/router"
	"github.com/wellnest/internal/service"
)

const (
	shutdownTimeout    = 5 * time.Second
	coachSweepInterval = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	log := logging.Component("server")

	gin.SetMode(cfg.GinMode)

	if err := openDatabase(); err != nil {
		return err
	}

	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		return err
	}

	api, err := router.BuildAPI(cfg, db.DB)
	if err != nil {
		return err
	}
	if cfg.AnthropicAPIKey == "" {
		log.Warn("ANTHROPIC_API_KEY is not set; insights will return the fallback message")
	}

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: router.SetupRouter(router.Deps{
			API:           api,
			SessionSecret: cfg.SessionSecret,
			SecureCookies: cfg.GinMode == gin.ReleaseMode,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepConversations(ctx, api.Coach())

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).WithField("coach_mode", cfg.CoachMode).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := db.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("close database failed")
		}
	}
	log.Info("server stopped")
	return nil
}

// sweepConversations 定期清理闲置的教练会话
func sweepConversations(ctx context.Context, coach *service.CoachService) {
	ticker := time.NewTicker(coachSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := coach.Sweep(); removed > 0 {
				logging.Component("coach").WithField("removed", removed).Debug("expired idle conversations")
			}
		}
	}
}

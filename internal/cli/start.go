package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	transport "trivia-bot/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	svc, err := b.service(cfg, log)
	if err != nil {
		return err
	}

	settings := transport.RoundSettings{
		Command:       cfg.Trivia.Command,
		AnnounceDelay: cfg.AnnounceDelay(),
		AnswerWindow:  cfg.AnswerWindow(),
	}
	router := transport.NewRouter(transport.RouterDeps{
		Rounds:   svc.engine,
		WS:       transport.NewWSHandler(svc.engine, svc.hub, settings, log),
		Settings: settings,
		Metrics:  svc.metrics.Handler(),
		Logger:   log,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    finalPort,
			"catalog": cfg.Catalog.Source,
			"scores":  cfg.Scores.Backend,
		}).Info("starting trivia service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fieldtrace/evidence-cli/internal/auth"
	"github.com/fieldtrace/evidence-cli/internal/config"
	"github.com/fieldtrace/evidence-cli/internal/credstore"
	"github.com/fieldtrace/evidence-cli/internal/dashboard"
	"github.com/fieldtrace/evidence-cli/internal/evidence"
	"github.com/fieldtrace/evidence-cli/internal/gateway"
	"github.com/fieldtrace/evidence-cli/internal/geo"
	"github.com/fieldtrace/evidence-cli/internal/logging"
	"github.com/fieldtrace/evidence-cli/internal/metrics"
	"github.com/fieldtrace/evidence-cli/internal/tracing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "dev"

// app holds the wired-up service graph shared by all commands.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	store     credstore.Store
	gw        *gateway.Client
	auth      *auth.Service
	dashboard *dashboard.Service
	submitter *evidence.Submitter
	locator   geo.Locator

	tracingShutdown func(context.Context) error
}

var a *app

var rootCmd = &cobra.Command{
	Use:     "evidence",
	Short:   "evidence CLI — capture and submit field evidence for merchandising tasks",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	err := rootCmd.Execute()
	if a != nil && a.tracingShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := a.tracingShutdown(shutdownCtx); shutdownErr != nil {
			a.logger.WithError(shutdownErr).Error("Failed to shutdown tracing")
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp() error {
	if a != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg)

	if err := metrics.Init(); err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	tracingShutdown, err := tracing.Init(&cfg.Observability, cfg.Environment, logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	var store credstore.Store
	switch cfg.Credentials.Backend {
	case "redis":
		store = credstore.NewRedisStore(cfg, logger)
	default:
		store = credstore.NewFileStore(cfg.Credentials.FilePath, logger)
	}

	gw, err := gateway.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("initializing gateway: %w", err)
	}

	var locator geo.Locator = geo.Unavailable{}
	if cfg.Location.Pinned {
		locator = geo.Static{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude}
	}

	a = &app{
		cfg:             cfg,
		logger:          logger,
		store:           store,
		gw:              gw,
		auth:            auth.New(gw, store, logger),
		dashboard:       dashboard.New(gw, store, logger),
		submitter:       evidence.NewSubmitter(gw, store, logger),
		locator:         locator,
		tracingShutdown: tracingShutdown,
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(forgotPasswordCmd)
	rootCmd.AddCommand(resetPasswordCmd)
}

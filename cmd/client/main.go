package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/client/internal/config"
	"github.com/fastygo/client/internal/gateway"
	"github.com/fastygo/client/internal/notifier"
	"github.com/fastygo/client/internal/services/lifecycle"
	"github.com/fastygo/client/pkg/logger"
	"github.com/fastygo/client/repository/boltdb"
	"github.com/fastygo/client/repository/rest"
	sessionUC "github.com/fastygo/client/usecase/session"
	syncUC "github.com/fastygo/client/usecase/sync"
)

// app bundles the wired client stack for the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	manager  *lifecycle.Manager
	sessions *sessionUC.Manager
	tasks    *syncUC.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("logger error: %w", err)
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)

	creds, err := boltdb.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	manager.Register("credentials", func(ctx context.Context) error {
		return creds.Close()
	})

	bus := notifier.New()
	manager.Register("notifier", func(ctx context.Context) error {
		bus.Close()
		return nil
	})

	gw := gateway.New(cfg.API.BaseURL, creds, bus, zapLogger,
		gateway.WithTimeout(cfg.API.RequestTimeout),
		gateway.WithSkew(cfg.API.TokenSkew),
	)

	authRepo := rest.NewAuthRepository(gw)
	taskRepo := rest.NewTaskRepository(gw)

	sessions := sessionUC.New(authRepo, creds, bus, zapLogger,
		sessionUC.WithVerifyTimeout(cfg.API.VerifyTimeout))
	sessions.Start()
	manager.Register("session_watcher", func(ctx context.Context) error {
		sessions.Stop()
		return nil
	})

	tasks := syncUC.New(taskRepo, zapLogger)

	return &app{
		cfg:      cfg,
		logger:   zapLogger,
		manager:  manager,
		sessions: sessions,
		tasks:    tasks,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.manager.Shutdown(ctx); err != nil {
		a.logger.Warn("shutdown incomplete", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp wires the stack, runs fn, and tears everything down afterwards.
func withApp(fn func(ctx context.Context, a *app, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		a.manager.Listen(cancel)
		defer a.close(context.Background())

		return fn(ctx, a, args)
	}
}

var rootCmd = &cobra.Command{
	Use:           "taskcli",
	Short:         "Command-line client for the task service",
	Long:          "taskcli keeps a local view of your tasks in sync with the task service,\nhandling login sessions and silent token renewal.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(taskCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Package main provides the repfy-api binary: the HTTP API server and its
// database maintenance commands.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"repfy/auth"
	"repfy/category"
	"repfy/config"
	"repfy/db"
	"repfy/logging"
	"repfy/metrics"
	"repfy/notification"
	"repfy/professional"
	"repfy/review"
	"repfy/servicerequest"
	"repfy/user"
)

const appName = "repfy-api"

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
	addr       string
}

func rootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Repfy services marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.addr, "addr", "", "HTTP listen address")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, flags)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			return migrate(cmd, flags, command)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	})

	return cmd
}

// loadConfig layers defaults, the YAML file, the environment and finally the
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command, flags rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if cmd.Flags().Changed("addr") {
		cfg.HTTPAddr = flags.addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func migrate(cmd *cobra.Command, flags rootFlags, command string) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.MigratePool(ctx, pool, command); err != nil {
		return err
	}
	log.Info(ctx, "migrations applied", "command", command)
	return nil
}

func serve(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{})
	if err != nil {
		return err
	}
	defer pool.Close()

	server, err := newServer(cfg, pool, log)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	log.Info(ctx, "repfy api starting", "version", version, "env", cfg.Env)
	return run(ctx, httpServer, log, cfg.ShutdownTimeout)
}

// newServer wires repositories and services over pool.
func newServer(cfg *config.Config, pool *pgxpool.Pool, log logging.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		ResetTTL:      cfg.ResetTTL,
	})
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(auth.NewRepository(pool), tokens, auth.NewHasher(cfg.BcryptCost), log)
	if err != nil {
		return nil, err
	}

	notifications := notification.NewWriter()

	return &Server{
		log:     log,
		tokens:  tokens,
		metrics: metrics.New(),

		authService:         authService,
		userService:         user.NewService(user.NewRepository(pool)),
		categoryService:     category.NewService(category.NewRepository(pool)),
		professionalService: professional.NewService(pool, professional.NewRepository(pool), log),
		requestService:      servicerequest.NewService(pool, servicerequest.NewRepository(pool), notifications, log),
		reviewService:       review.NewService(pool, review.NewRepository(pool), notifications, log),
		notificationService: notification.NewService(notification.NewRepository(pool)),

		exposeResetToken: cfg.ResetTokenExposed(),
		logResetToken:    !cfg.IsProduction(),
		frontendURL:      cfg.FrontendURL,
	}, nil
}

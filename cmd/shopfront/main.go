package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopfront/internal/config"
	"shopfront/internal/http/handlers"
	"shopfront/internal/i18n"
	applog "shopfront/internal/log"
	"shopfront/internal/repos"
	"shopfront/internal/session"
	"shopfront/internal/shopapi"
)

const purgeEvery = 15 * time.Minute

var (
	envFile string
	port    string
	dev     bool
)

var rootCmd = &cobra.Command{
	Use:           "shopfront",
	Short:         "Server-rendered storefront for the shop API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the storefront over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	serveCmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	serveCmd.Flags().BoolVar(&dev, "dev", false, "reload templates on every render")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load(envFile)
	if port != "" {
		cfg.Port = port
	}
	if dev {
		cfg.TemplateReload = true
	}

	logger, err := applog.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	sealer, err := session.NewSealer(cfg.SessionKey)
	if err != nil {
		return fmt.Errorf("SESSION_KEY: %w", err)
	}
	if cfg.SessionKey == "" {
		logger.Warn("session.key.random", zap.String("hint", "set SESSION_KEY to keep sessions across restarts"))
	}

	var bus session.Bus = session.NewLocalBus()
	if cfg.RedisURL != "" {
		rb, err := session.NewRedisBus(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rb.Close()
		bus = rb
	}

	store := session.NewStore(session.WithPersister(repos.NewSessionRepo(db), sealer), session.WithBus(bus))
	n, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	logger.Info("session.restore", zap.Int("count", n))
	go func() {
		if err := store.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session.listen", zap.Error(err))
		}
	}()
	go purgeSessions(ctx, db, store)

	bundle, err := i18n.Load(cfg.LocalesDir, cfg.DefaultLang)
	if err != nil {
		return fmt.Errorf("locales: %w", err)
	}
	go func() {
		if err := bundle.Watch(ctx); err != nil {
			logger.Warn("i18n.watch", zap.Error(err))
		}
	}()

	api := shopapi.New(cfg.APIBaseURL, cfg.APITimeout)
	deps := handlers.NewDeps(db, cfg, api, store, bundle)
	app := handlers.NewApp(deps, handlers.Views(cfg.TemplatesDir, bundle, cfg.TemplateReload))

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(":" + cfg.Port) }()
	logger.Info("server.start", zap.String("port", cfg.Port))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("server.stop")
	return app.ShutdownWithTimeout(10 * time.Second)
}

// purgeSessions drops expired sessions from memory and from sqlite. Rows
// for sids this process never loaded are only reachable through the repo.
func purgeSessions(ctx context.Context, db *sqlx.DB, store *session.Store) {
	repo := repos.NewSessionRepo(db)
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			swept, err := store.Sweep(ctx, now)
			if err != nil {
				applog.L().Warn("session.sweep", zap.Error(err))
			}
			n, err := repo.PurgeExpired(ctx, now)
			if err != nil {
				applog.L().Warn("session.purge", zap.Error(err))
				continue
			}
			if swept > 0 || n > 0 {
				applog.L().Info("session.purge", zap.Int("swept", swept), zap.Int64("removed", n))
			}
		}
	}
}

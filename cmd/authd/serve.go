package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/precinctdesk/go-auth"
	"github.com/precinctdesk/go-auth/activitymap"
	"github.com/precinctdesk/go-auth/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the auth HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		db, err := openDB(cfg.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := auth.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}

		app, err := buildApp(db, cfg)
		if err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			rootLogger.Info().Msgf("Starting server on %s...", cfg.Addr)
			errCh <- app.Listen(cfg.Addr)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server crashed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		rootLogger.Info().Msg("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		rootLogger.Info().Msg("Server exited")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(v.GetString(config.DSNKey))
		if err != nil {
			return err
		}
		defer db.Close()

		if err := auth.Migrate(cmd.Context(), db); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}
		rootLogger.Info().Msg("schema up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	serveCmd.Flags().String("addr", ":8080", "address to listen on")
	_ = v.BindPFlag(config.AddrKey, serveCmd.Flags().Lookup("addr"))
}

func openDB(dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("dsn is required")
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func buildApp(db *bun.DB, cfg *config.Config) (*fiber.App, error) {
	tokens, err := auth.NewTokenServiceFromConfig(cfg, componentLogger("tokens"))
	if err != nil {
		return nil, err
	}

	registry := auth.NewAccountRegistry(
		auth.NewAccountsRepository(db),
		auth.WithRegistryLogger(componentLogger("registry")),
		auth.WithHashedIDs(cfg.HashedIDs),
		auth.WithRegistryTimeout(cfg.RegistryTimeout),
	)

	auther := auth.NewAuthenticator(registry, tokens).
		WithLogger(componentLogger("auth")).
		WithActivitySink(activitySink())

	controller := auth.NewHTTPController(auther, tokens, cfg,
		auth.WithHTTPLogger(componentLogger("http")),
		auth.WithMobileRegion(cfg.MobileRegion),
	)

	app := auth.NewFiberApp(componentLogger("http"))
	controller.RegisterRoutes(app)

	return app, nil
}

// activitySink writes normalized audit records to the process log
func activitySink() auth.ActivitySink {
	logger := rootLogger.With().Str("component", "activity").Logger()
	return auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		record := activitymap.Normalize(event)
		logger.Info().
			Str("actor_id", record.ActorID).
			Str("verb", record.Verb).
			Str("object_type", record.ObjectType).
			Str("object_id", record.ObjectID).
			Str("channel", record.Channel).
			Fields(record.Metadata).
			Time("occurred_at", record.OccurredAt).
			Msg("activity")
		return nil
	})
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equiphouse/internal/config"
	"equiphouse/internal/core/container"
	"equiphouse/internal/core/logger"
	"equiphouse/internal/core/routes"
	"equiphouse/internal/database"
	"equiphouse/internal/inventory/restructure"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.NewLogger()
			defer log.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if cfg.StoreDriver == config.StorePostgres {
				if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, log); err != nil {
					return fmt.Errorf("migrate database: %w", err)
				}
			}

			c, err := container.NewAppContainer(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			server := &http.Server{
				Addr:    cfg.AppHost,
				Handler: routes.NewRouter(c),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("Starting server", zap.String("addr", cfg.AppHost))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations manually.",
		Long:  `Applies the SQL migrations of the postgres document store. The server runs them on start as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logger.NewLogger()
			migrationDir, _ := cmd.Flags().GetString("dir")

			if err := database.RunMigrations(os.Getenv("DATABASE_URL"), migrationDir, log); err != nil {
				log.Error("Migration failed", zap.Error(err))
				return fmt.Errorf("migrate database: %w", err)
			}

			return nil
		},
	}
	migrateCmd.Flags().String("dir", "migrations", "Directory containing the migration files")

	return migrateCmd
}

func newRestructureCmd() *cobra.Command {
	restructureCmd := &cobra.Command{
		Use:   "restructure",
		Short: "Move legacy flat asset documents into the master/instance layout.",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate legacy asset documents.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			skipExisting, _ := cmd.Flags().GetBool("skip-existing")
			return withRestructure(cmd, func(ctx context.Context, s *restructure.Service) (any, error) {
				report, err := s.Migrate(ctx, restructure.Options{SkipExisting: skipExisting})
				if err == nil && report.Status == restructure.StatusFatalFailure {
					err = errors.New(report.Fatal)
				}
				return report, err
			})
		},
	}
	runCmd.Flags().Bool("skip-existing", false, "Skip name groups that already have a migrated master")

	rollbackCmd := &cobra.Command{
		Use:   "rollback",
		Short: "Delete every master and instance produced by a restructure run.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRestructure(cmd, func(ctx context.Context, s *restructure.Service) (any, error) {
				return s.Rollback(ctx)
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Compare legacy asset documents with migrated instances.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRestructure(cmd, func(ctx context.Context, s *restructure.Service) (any, error) {
				return s.CheckStatus(ctx)
			})
		},
	}

	restructureCmd.AddCommand(runCmd, rollbackCmd, statusCmd)
	return restructureCmd
}

// withRestructure builds the service from the environment, runs one job and
// prints its result as JSON.
func withRestructure(cmd *cobra.Command, run func(ctx context.Context, s *restructure.Service) (any, error)) error {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c, err := container.NewAppContainer(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	result, runErr := run(cmd.Context(), c.Restructure)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return err
	}

	return runErr
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "equiphouse",
		Short: "Equipment inventory service",
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newRestructureCmd())

	return rootCmd
}

func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

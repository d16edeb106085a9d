// Package cli implements the bhesbhusa operator commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"bhesbhusa/internal/config"
	"bhesbhusa/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Env carries what a command needs once the database is reachable.
type Env struct {
	Pool   *pgxpool.Pool
	Logger zerolog.Logger
}

// Connector opens the database for a command. The returned function releases it.
type Connector func(ctx context.Context) (*Env, func(), error)

// NewRootCommand builds the root bhesbhusa CLI command.
func NewRootCommand(connect Connector) *cobra.Command {
	root := &cobra.Command{
		Use:           "bhesbhusa",
		Short:         "BhesBhusa store operator toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd(connect))
	root.AddCommand(newSeedCmd(connect))
	root.AddCommand(newDBCmd(connect))

	return root
}

// Execute runs the CLI against the configured database.
func Execute() error {
	if err := NewRootCommand(ConnectFromEnv).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// ConnectFromEnv opens a pool from the environment configuration.
func ConnectFromEnv(ctx context.Context) (*Env, func(), error) {
	cfg, err := config.LoadTooling()
	if err != nil {
		return nil, nil, err
	}

	logger := config.NewLogger(cfg.Logger)
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	return &Env{Pool: pool, Logger: logger}, pool.Close, nil
}

func newMigrateCmd(connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), connect, func(ctx context.Context, mig *database.Migrator) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			return withMigrator(cmd.Context(), connect, func(ctx context.Context, mig *database.Migrator) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), connect, func(ctx context.Context, mig *database.Migrator) error {
				if err := mig.Status(ctx); err != nil {
					return err
				}
				version, err := mig.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			})
		},
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}

func newSeedCmd(connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample users and clothes catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), connect, func(ctx context.Context, env *Env) error {
				if err := database.Seed(ctx, env.Pool, env.Logger); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data applied")
				return nil
			})
		},
	}
}

func newDBCmd(connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), connect, func(ctx context.Context, env *Env) error {
				var name string
				if err := env.Pool.QueryRow(ctx, "SELECT current_database()").Scan(&name); err != nil {
					return fmt.Errorf("query failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "connected to database %s\n", name)
				return nil
			})
		},
	})
	return cmd
}

func withEnv(ctx context.Context, connect Connector, fn func(context.Context, *Env) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	env, release, err := connect(ctx)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx, env)
}

func withMigrator(ctx context.Context, connect Connector, fn func(context.Context, *database.Migrator) error) error {
	return withEnv(ctx, connect, func(ctx context.Context, env *Env) error {
		mig := database.NewMigrator(env.Pool, env.Logger)
		defer mig.Close()
		return fn(ctx, mig)
	})
}

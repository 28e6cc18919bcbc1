package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/config"
	"github.com/clinic/clinic/internal/domain/clinic"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-server",
		Short:         "Clinic admin API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger.Level(lvl)
}

// loadConfig loads and validates configuration and builds the logger from it.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, newLogger(os.Getenv("ENV"), "info"), err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

// migrationsFS returns the embedded migrations unless a directory is given.
func migrationsFS(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return runServer(cfg, logger)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrationsFS(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info().Int("applied", count).Msg("migrations complete")
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default: embedded migrations)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrationsFS(dir)).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default: embedded migrations)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// withService opens the pool, runs fn against a service and closes the pool.
func withService(ctx context.Context, fn func(*clinic.Service) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(clinic.NewServiceFromStorage(clinic.NewStoragePG(pool)))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			return withService(cmd.Context(), func(svc *clinic.Service) error {
				u, err := svc.CreateUser(cmd.Context(), clinic.InsertUser{Username: username, Password: password})
				if err != nil {
					return err
				}
				return printJSON(cmd, u)
			})
		},
	}
	createCmd.Flags().String("username", "", "Unique username")
	createCmd.Flags().String("password", "", "Password")
	_ = createCmd.MarkFlagRequired("username")
	_ = createCmd.MarkFlagRequired("password")
	cmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Look up a user by username or id",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			id, _ := cmd.Flags().GetInt32("id")
			if username == "" && id == 0 {
				return errors.New("one of --username or --id is required")
			}

			return withService(cmd.Context(), func(svc *clinic.Service) error {
				var (
					u   *clinic.User
					err error
				)
				if username != "" {
					u, err = svc.GetUserByUsername(cmd.Context(), username)
				} else {
					u, err = svc.GetUser(cmd.Context(), id)
				}
				if errors.Is(err, clinic.ErrNotFound) {
					return fmt.Errorf("user not found")
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, u)
			})
		},
	}
	getCmd.Flags().String("username", "", "Username to look up")
	getCmd.Flags().Int32("id", 0, "User id to look up")
	getCmd.MarkFlagsMutuallyExclusive("username", "id")
	cmd.AddCommand(getCmd)

	return cmd
}

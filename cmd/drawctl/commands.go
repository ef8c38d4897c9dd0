package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Dosada05/debate-draw/db"
	"github.com/Dosada05/debate-draw/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	DatabaseURL string
	JWTSecret   string
}

func newRootCommand() *cobra.Command {
	_ = godotenv.Load()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "drawctl",
		Short: "Operator tooling for the debate draw service",
	}
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string")
	cmd.PersistentFlags().StringVar(&opts.JWTSecret, "secret", os.Getenv("JWT_SECRET_KEY"), "HS256 signing secret")

	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))
	return cmd
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the embedded database schema",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.DatabaseURL == "" {
				return errors.New("database url is required (--database-url or DATABASE_URL)")
			}
			conn, err := db.Connect(opts.DatabaseURL, timeout)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "connection and migration timeout")
	return cmd
}

func newTokenCommand(opts *rootOptions) *cobra.Command {
	var (
		userID int
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Issue a signed access token for the admin API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.JWTSecret == "" {
				return errors.New("signing secret is required (--secret or JWT_SECRET_KEY)")
			}
			if userID <= 0 {
				return fmt.Errorf("--user-id must be positive, got %d", userID)
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive, got %s", ttl)
			}
			token, err := middleware.NewToken([]byte(opts.JWTSecret), userID, role, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&userID, "user-id", 0, "user id recorded in the action log")
	cmd.Flags().StringVar(&role, "role", middleware.RoleAdmin, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

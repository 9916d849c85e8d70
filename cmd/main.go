package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/storefront-backend/internal/app"
	"github.com/yungbote/storefront-backend/internal/data/repos"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
	"github.com/yungbote/storefront-backend/internal/services"
)

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "Storefront and admin API",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the schema and serve the HTTP API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema and exit",
	RunE:  runMigrate,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing one",
	RunE:  runCreateAdmin,
}

var (
	adminEmail    string
	adminPassword string
)

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "password for a newly created account")
	_ = createAdminCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func main() {
	if len(os.Args) == 1 {
		rootCmd.SetArgs([]string{"serve"})
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withLogger(fn func(ctx context.Context, log *logger.Logger) error) error {
	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()
	if err := fn(context.Background(), log); err != nil {
		log.Error("Command failed", "error", err)
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withLogger(func(ctx context.Context, log *logger.Logger) error {
		a, err := app.New(ctx, log)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Run(ctx)
	})
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withLogger(func(ctx context.Context, log *logger.Logger) error {
		pg, _, err := app.Bootstrap(log, true)
		if err != nil {
			return err
		}
		defer pg.Close()
		log.Info("Schema is up to date")
		return nil
	})
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	return withLogger(func(ctx context.Context, log *logger.Logger) error {
		pg, cfg, err := app.Bootstrap(log, true)
		if err != nil {
			return err
		}
		defer pg.Close()
		db := pg.DB()
		auth := services.NewAuthService(db, log, repos.NewUserRepo(db, log), repos.NewUserTokenRepo(db, log), nil,
			cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
		u, err := auth.EnsureAdmin(ctx, services.RegisterInput{Email: adminEmail, Password: adminPassword})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (%s)\n", u.Email, u.ID)
		return nil
	})
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"user-directory/cmd/api/app"
	"user-directory/cmd/api/server"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "user-directory",
		Short: "User directory REST service",
		Long: `A CRUD service for directory records with fingerprint based
duplicate detection, search, sorting and pagination.

Examples:
  user-directory serve
  user-directory seed --config ./deploy`,
		SilenceUsage: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "."
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "directory holding app.env and .env")

	root.AddCommand(newServeCmd(), newSeedCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API and the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := server.WithSignal(cmd.Context())
			defer stop()

			a, err := app.New(ctx, configPath)
			if err != nil {
				return err
			}

			return a.Run(ctx)
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample users, skipping ones that already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.New(ctx, configPath)
			if err != nil {
				return err
			}

			res, seedErr := app.Seed(ctx, a.Container.UserUC, a.Logger)
			a.Logger.Info("seed finished", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))

			if err := a.Close(); err != nil && seedErr == nil {
				return err
			}
			return seedErr
		},
	}
}

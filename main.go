package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"fiber/responta/app/repo"
	"fiber/responta/config"
	"fiber/responta/db"
	"fiber/responta/route"
)

func main() {
	root := &cobra.Command{
		Use:   "responta",
		Short: "Public complaint handling service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()
			config.InitLogger(config.Env.AppName)
			return db.ConnectDB()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			db.Close()
		},
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), purgeTokensCmd())

	if err := root.Execute(); err != nil {
		config.Log.WithError(err).Fatal("Command failed")
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrate {
				if err := db.Migrate(); err != nil {
					return err
				}
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			app := config.NewApp()
			route.SetupRoutes(app, db.GetDB(), db.SQL(), db.GetMongo(), reg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				config.Log.WithField("port", config.Env.AppPort).Info("Server listening")
				errCh <- app.Listen(":" + config.Env.AppPort)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			config.Log.Info("Shutting down")
			return app.ShutdownWithTimeout(10 * time.Second)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.Migrate()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert roles, the organization tree and the bootstrap super_admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.Seed()
		},
	}
}

func purgeTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-tokens",
		Short: "Delete blacklisted tokens that have already expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := repo.NewTokenRepo(db.GetDB()).PurgeExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			config.Log.WithField("deleted", n).Info("Expired tokens purged")
			return nil
		},
	}
}

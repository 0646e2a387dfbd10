package main

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nexconsult/cnpj-etl/internal/api"
	"github.com/nexconsult/cnpj-etl/internal/db"
	"github.com/nexconsult/cnpj-etl/internal/services"
)

func apiCmd(a *app) *cobra.Command {
	var (
		host        string
		port        int
		databaseURL string
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the loaded registry over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if databaseURL == "" {
				databaseURL = a.cfg.Database.URL
			}
			if databaseURL == "" {
				return errors.Wrap(errUsage, "no database configured, set --database-url or DATABASE_URL")
			}
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				if port < 1 || port > 65535 {
					return errors.Wrapf(errUsage, "invalid port %d", port)
				}
				a.cfg.Server.Port = port
			}

			pool, err := db.Connect(ctx, databaseURL, a.cfg.Database.Schema)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Redis is optional: when it is unreachable the cache degrades
			// to memory and the API stays up.
			var redisClient *redis.Client
			client := redis.NewClient(&redis.Options{
				Addr:     a.cfg.Redis.Addr(),
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			if err := client.Ping(pingCtx).Err(); err != nil {
				a.log.WithError(err).Warn("redis unreachable, using in-memory cache only")
				client.Close()
			} else {
				redisClient = client
			}
			cancel()

			cache := services.NewCacheService(redisClient, a.cfg.Redis.CacheTTL, a.log)
			cache.StartCleanupRoutine(ctx)
			companies := services.NewCompanyService(pool, cache, a.log)

			server := api.NewServer(a.cfg.Server, pool, cache, companies, a.log)

			errCh := make(chan error, 1)
			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info("shutting down api server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default: API_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: API_PORT)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default: DATABASE_URL)")

	return cmd
}

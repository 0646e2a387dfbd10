package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nexconsult/cnpj-etl/internal/db"
)

func dbCmd(a *app) *cobra.Command {
	var (
		databaseURL string
		schema      string
	)

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the registry schema",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres URL (default: DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&schema, "schema", "", "Postgres schema to operate in (default: POSTGRES_SCHEMA or public)")

	resolve := func() (string, string, error) {
		url := databaseURL
		if url == "" {
			url = a.cfg.Database.URL
		}
		if url == "" {
			return "", "", errors.Wrap(errUsage, "no database configured, set --database-url or DATABASE_URL")
		}
		s := schema
		if s == "" {
			s = a.cfg.Database.Schema
		}
		return url, s, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create the tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, s, err := resolve()
			if err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), url, s)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Create(cmd.Context(), pool, s, a.log)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "drop",
		Short: "Drop the tables and all loaded data",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, s, err := resolve()
			if err != nil {
				return err
			}
			pool, err := db.Connect(cmd.Context(), url, s)
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Drop(cmd.Context(), pool, a.log)
		},
	})

	return cmd
}

package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/transform"
	"github.com/nexconsult/cnpj-etl/internal/writer"
)

func transformCmd(a *app) *cobra.Command {
	var (
		dir         string
		output      string
		databaseURL string
		privacy     bool
		parallel    int
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform the downloaded archives into the relational registry",
		Long: `Transform extracts the staged archives, enriches every record with its
lookup labels, and streams the result into Postgres (--database-url or
DATABASE_URL) or into CSV files under the output directory.

Examples:
  cnpj-etl transform --database-url postgres://localhost/cnpj
  cnpj-etl transform --output ./out --privacy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := a.cfg.Transform
			if dir != "" {
				cfg.DataDir = dir
			}
			if output != "" {
				cfg.OutputDir = output
			}
			if cmd.Flags().Changed("parallel") {
				cfg.MaxParallel = parallel
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.BatchSize = batchSize
			}
			cfg.PrivacyMode = cfg.PrivacyMode || privacy
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(errUsage, err.Error())
			}
			if databaseURL == "" {
				databaseURL = a.cfg.Database.URL
			}

			var sink writer.Writer
			if databaseURL != "" {
				pg, err := writer.NewPostgresWriter(ctx, databaseURL, a.cfg.Database.Schema, a.log)
				if err != nil {
					return err
				}
				defer pg.Close()
				sink = pg
			} else {
				csv, err := writer.NewCSVWriter(cfg.OutputDir, a.log)
				if err != nil {
					return err
				}
				sink = csv
			}

			t, err := transform.New(cfg, sink, a.log)
			if err != nil {
				return err
			}
			if err := t.Run(ctx); err != nil {
				return err
			}

			var read, written, rejected, failed int64
			for _, s := range t.Stats() {
				read += s.Read
				written += s.Written
				rejected += s.Rejected
				failed += s.Failed
			}
			a.log.WithFields(logrus.Fields{
				"datasets": len(catalog.FactDatasets),
				"read":     read,
				"written":  written,
				"rejected": rejected,
				"failed":   failed,
			}).Info("transform finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "directory", "", "directory the archives were downloaded to")
	cmd.Flags().StringVar(&output, "output", "", "directory for CSV output when no database is configured")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL to load into")
	cmd.Flags().BoolVar(&privacy, "privacy", false, "mask personal identifiers in names and partner ids")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "partition workers per dataset")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per write batch")

	return cmd
}

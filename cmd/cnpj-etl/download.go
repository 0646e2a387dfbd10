package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nexconsult/cnpj-etl/internal/catalog"
	"github.com/nexconsult/cnpj-etl/internal/download"
)

func downloadCmd(a *app) *cobra.Command {
	var (
		period       string
		dir          string
		parallel     int
		maxRetries   int
		chunkSize    int64
		rps          float64
		skipExisting bool
		restart      bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the monthly dump with resumable parallel transfers",
		Long: `Download fetches all 37 archives of one monthly period from the Federal
Revenue origin. Interrupted transfers resume from the bytes already on disk.

Examples:
  cnpj-etl download
  cnpj-etl download --period 2026-07 --parallel 8
  cnpj-etl download --skip-existing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Download
			if dir != "" {
				cfg.DataDir = dir
			}
			if cmd.Flags().Changed("parallel") {
				cfg.MaxParallel = parallel
			}
			if cmd.Flags().Changed("max-retries") {
				cfg.MaxRetries = maxRetries
			}
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("rate") {
				cfg.RequestsPerSec = rps
			}
			cfg.SkipExisting = cfg.SkipExisting || skipExisting
			cfg.Restart = cfg.Restart || restart
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(errUsage, err.Error())
			}

			p := catalog.Period(period)
			if period == "" {
				p = catalog.CurrentPeriod(time.Now())
			}
			entries, err := catalog.Catalog(cfg.BaseURL, p)
			if err != nil {
				return errors.Wrap(errUsage, err.Error())
			}

			d, err := download.New(cfg, a.log)
			if err != nil {
				return err
			}
			a.log.WithField("period", p).WithField("files", len(entries)).Info("download started")
			return d.Download(cmd.Context(), entries)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "snapshot period in YYYY-MM form (default: current month)")
	cmd.Flags().StringVar(&dir, "directory", "", "directory the archives are staged in")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "maximum concurrent file downloads")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "attempts per chunk before giving up")
	cmd.Flags().Int64Var(&chunkSize, "chunk-size", 0, "range request window in bytes")
	cmd.Flags().Float64Var(&rps, "rate", 0, "chunk requests per second against the origin (0 = unlimited)")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "skip files already fully present on disk")
	cmd.Flags().BoolVar(&restart, "restart", false, "discard partial files and start over")

	return cmd
}

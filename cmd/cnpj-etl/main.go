// Command cnpj-etl drives the CNPJ open-data pipeline: download the monthly
// dump, transform it into the relational registry, and serve it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/cnpj-etl/internal/config"
	"github.com/nexconsult/cnpj-etl/internal/logger"
)

var Version = "dev"

// errUsage marks argument and configuration mistakes so main can exit 2
// instead of the generic failure code.
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// app carries the loaded configuration and logger into the subcommands.
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)
	a := &app{}

	root := &cobra.Command{
		Use:           "cnpj-etl",
		Short:         "ETL pipeline and API for the Brazilian Federal Revenue CNPJ registry",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.Wrap(errUsage, err.Error())
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			a.cfg = cfg
			a.log = logger.New(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(downloadCmd(a))
	root.AddCommand(transformCmd(a))
	root.AddCommand(checkCmd(a))
	root.AddCommand(dbCmd(a))
	root.AddCommand(apiCmd(a))

	return root
}

package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexconsult/cnpj-etl/internal/archive"
)

func checkCmd(a *app) *cobra.Command {
	var (
		dir        string
		deleteCorr bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the integrity of downloaded archives",
		Long: `Check reads every archive in the data directory end to end, validating
each entry's CRC. With --delete, corrupt archives are removed so the next
download fetches them again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Download.DataDir
			}
			paths, err := archive.ListZips(dir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return errors.Wrapf(errUsage, "no archives found in %s", dir)
			}

			var corrupt []string
			for _, path := range paths {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				if err := archive.CheckZip(path); err != nil {
					a.log.WithError(err).WithField("file", path).Warn("archive corrupt")
					corrupt = append(corrupt, path)
					continue
				}
				a.log.WithField("file", path).Debug("archive ok")
			}

			if len(corrupt) == 0 {
				a.log.WithField("files", len(paths)).Info("all archives valid")
				return nil
			}

			if deleteCorr {
				for _, path := range corrupt {
					if err := os.Remove(path); err != nil {
						return errors.Wrapf(err, "remove %s", path)
					}
					a.log.WithField("file", path).Info("corrupt archive removed")
				}
			}
			a.log.WithFields(logrus.Fields{
				"checked": len(paths),
				"corrupt": len(corrupt),
			}).Error("corrupt archives found")
			return errors.Errorf("%d of %d archives corrupt", len(corrupt), len(paths))
		},
	}

	cmd.Flags().StringVar(&dir, "directory", "", "directory holding the downloaded archives")
	cmd.Flags().BoolVar(&deleteCorr, "delete", false, "remove corrupt archives")

	return cmd
}

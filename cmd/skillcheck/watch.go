package main

import (
	"github.com/geoskills/skillcheck/pkg/logger"
	"github.com/geoskills/skillcheck/pkg/presenter"
	"github.com/geoskills/skillcheck/pkg/report"
	"github.com/geoskills/skillcheck/pkg/validator"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newWatchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-run validation whenever the repository changes",
		Long: `Validate the repository, then keep watching it and validate again after every
burst of file changes. Rapid successive changes are coalesced using the
debounce interval. Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debounce, err := cmd.Flags().GetDuration("debounce")
			if err != nil {
				return err
			}
			if debounce < 0 {
				return errors.Errorf("debounce cannot be negative: %s", debounce)
			}

			cfg, err := c.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			v, err := validator.New(cfg)
			if err != nil {
				return err
			}

			p := presenter.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
			p.Info("Watching " + cfg.Root + " for changes... Press Ctrl+C to stop")

			return v.Watch(cmd.Context(), debounce, func(r *report.Report, err error) {
				if err != nil {
					if cmd.Context().Err() == nil {
						p.Error(err, "validation failed")
					}
					return
				}
				p.Separator()
				if err := emit(cmd, cfg, r); err != nil {
					logger.G(cmd.Context()).WithError(err).Error("failed to write report")
				}
			})
		},
	}
	cmd.Flags().Duration("debounce", validator.DefaultDebounce, "Quiet period after the last change before validating again")
	return cmd
}

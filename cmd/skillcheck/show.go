package main

import (
	"github.com/geoskills/skillcheck/pkg/config"
	"github.com/geoskills/skillcheck/pkg/presenter"
	"github.com/geoskills/skillcheck/pkg/report"
	"github.com/geoskills/skillcheck/pkg/rules"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <report.json> [skill]",
		Short: "Print a report saved with --output",
		Long: `Print a JSON report written by "skillcheck --output", either in full or for a
single skill. The exit status follows the status of what is shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			r, err := report.ReadFile(args[0])
			if err != nil {
				return err
			}

			p := presenter.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
			p.SetQuiet(cfg.Quiet)

			status := r.Status
			if len(args) == 2 {
				sr, ok := r.Skill(args[1])
				if !ok {
					return errors.Errorf("skill %s is not in report %s", args[1], args[0])
				}
				status = sr.Status
				if cfg.Format == config.FormatJSON {
					err = writeJSON(cmd.OutOrStdout(), sr)
				} else {
					report.RenderSkill(p, r, sr)
				}
			} else if cfg.Format == config.FormatJSON {
				err = report.WriteJSON(cmd.OutOrStdout(), r)
			} else {
				report.Render(p, r)
			}
			if err != nil {
				return err
			}

			if status == rules.SeverityFail {
				return &exitError{code: exitFailed}
			}
			return nil
		},
	}
}

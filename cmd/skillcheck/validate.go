package main

import (
	"github.com/geoskills/skillcheck/pkg/config"
	"github.com/geoskills/skillcheck/pkg/logger"
	"github.com/geoskills/skillcheck/pkg/presenter"
	"github.com/geoskills/skillcheck/pkg/report"
	"github.com/geoskills/skillcheck/pkg/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate every skill and the registries",
		Long: `Validate every skill directory under the repository root and cross-check the
index and manifest. The report is printed as text or, with --format json, as a
JSON document whose schema is printed by "skillcheck schema".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd, args)
		},
	}
}

func (c *cli) runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd, args)
	if err != nil {
		return err
	}
	v, err := validator.New(cfg)
	if err != nil {
		return err
	}

	r, err := v.Run(cmd.Context())
	if err != nil {
		return err
	}
	if err := emit(cmd, cfg, r); err != nil {
		return err
	}

	if r.Failed() {
		return &exitError{code: exitFailed}
	}
	return nil
}

// emit writes the report in the configured format, plus the JSON file
// requested with --output
func emit(cmd *cobra.Command, cfg *config.Config, r *report.Report) error {
	if cfg.Output != "" {
		if err := report.WriteFile(cfg.Output, r); err != nil {
			return err
		}
		logger.G(cmd.Context()).WithField("path", cfg.Output).Debug("wrote report file")
	}

	if cfg.Format == config.FormatJSON {
		return report.WriteJSON(cmd.OutOrStdout(), r)
	}
	p := presenter.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
	p.SetQuiet(cfg.Quiet)
	report.Render(p, r)
	return nil
}

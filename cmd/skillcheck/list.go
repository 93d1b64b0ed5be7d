package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/geoskills/skillcheck/pkg/rules"
	"github.com/geoskills/skillcheck/pkg/validator"
	"github.com/spf13/cobra"
)

const maxDescription = 60

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list [path]",
		Short: "List the skills found in the repository",
		Long: `List every skill directory with its document status, declared name, version,
body length and description. The status covers the checks of the skill's own
SKILL.md only; run "skillcheck validate" to cross-check the registries too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, args)
			if err != nil {
				return err
			}
			v, err := validator.New(cfg)
			if err != nil {
				return err
			}
			ids, err := v.Discovery().Identifiers()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "IDENTIFIER\tSTATUS\tNAME\tVERSION\tLINES\tDESCRIPTION")
			fmt.Fprintln(tw, "----------\t------\t----\t-------\t-----\t-----------")
			for _, id := range ids {
				fmt.Fprintln(tw, listRow(cmd.Context(), v, id))
			}
			return tw.Flush()
		},
	}
}

func listRow(ctx context.Context, v *validator.Validator, id string) string {
	res := v.CheckSkill(ctx, id)
	if res.Err != nil {
		return fmt.Sprintf("%s\t%s\t-\t-\t-\t(unreadable)", id, rules.SeverityFail)
	}
	status := rules.Worst(res.Findings)

	doc, err := v.Discovery().Load(id)
	if err != nil {
		return fmt.Sprintf("%s\t%s\t-\t-\t-\t(unreadable)", id, rules.SeverityFail)
	}

	name, version, description := "-", "-", "-"
	if fm := doc.Frontmatter; fm != nil {
		name = orDash(fm.String("name"))
		version = orDash(fm.String("version"))
		description = orDash(fm.String("description"))
	} else if doc.FrontmatterErr != nil {
		description = "(invalid frontmatter)"
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s", id, status, name, version, doc.BodyLineCount, truncate(description, maxDescription))
}

// truncate shortens s to at most limit characters, ending in "..." when cut
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

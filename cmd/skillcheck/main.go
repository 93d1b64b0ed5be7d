package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/geoskills/skillcheck/pkg/config"
	"github.com/geoskills/skillcheck/pkg/logger"
	"github.com/geoskills/skillcheck/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Process exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitFatal  = 2
)

// exitError carries a non-zero exit code out of a command without printing
// anything further
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// cli holds the state shared by every command of one invocation
type cli struct {
	v          *viper.Viper
	configFile string
	logLevel   string
	logFormat  string
}

// loadConfig resolves the configuration, with an optional positional
// repository path taking precedence over --root
func (c *cli) loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if err := config.BindFlags(c.v, cmd.Flags()); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		c.v.Set("root", args[0])
	}
	return config.Load(c.v, c.configFile)
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "skillcheck [path]",
		Short: "Validate a repository of agent skills",
		Long: `skillcheck validates a repository of agent skills. Every SKILL.md under the
skills directory is checked for metadata, structure and reference layout, and
the README index and marketplace manifest are cross-checked against the skill
directories on disk.

Running skillcheck without a subcommand is the same as "skillcheck validate".

Exit status is 0 when every check passes or only warns, 1 when any check
fails and 2 when validation could not run.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Configure(c.logLevel, c.logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	config.RegisterFlags(flags)
	flags.StringVar(&c.configFile, "config", "", "Config file (default is .skillcheck.yaml in the root)")
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&c.logFormat, "log-format", logger.FormatText, "Log format (fmt or json)")

	rootCmd.AddCommand(
		newValidateCmd(c),
		newListCmd(c),
		newWatchCmd(c),
		newShowCmd(c),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// execute runs the command line and maps the outcome to an exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	presenter.NewWithWriters(stdout, stderr).Error(err, "skillcheck")
	return exitFatal
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func main() {
	os.Exit(run())
}

package cmd

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/jsphweid/midistates/config"
	"github.com/jsphweid/midistates/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPath string
	logLevel   string
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:           "midistates",
	Short:         "Hand-posture states and transitions from MIDI recordings",
	Long:          `Decodes piano recordings into hand-posture states, builds the transitions between them and labels them against the study's canonical sequences.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&logJSON, "log-json", false, "log JSON lines")
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExecuteArgs runs the command line args with status output going to out.
// Flags left over from an earlier call are reset first.
func ExecuteArgs(args []string, out io.Writer) error {
	if err := resetFlags(rootCmd); err != nil {
		return err
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	return rootCmd.ExecuteContext(context.Background())
}

func resetFlags(c *cobra.Command) error {
	var err error
	reset := func(f *pflag.Flag) {
		if e := f.Value.Set(f.DefValue); e != nil && err == nil {
			err = errors.Wrapf(e, "resetting --%s", f.Name)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		if e := resetFlags(sub); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// setup loads the configuration, applies the persistent flags on top and
// builds the logger. Logs go to the command's error stream.
func setup(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = logJSON
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

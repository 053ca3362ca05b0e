//go:build !js

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"

	"hackvm/pkg/config"
	"hackvm/pkg/driver"
)

var (
	exitCode = 1

	// cfg is the effective configuration once before has run: defaults, then
	// the --config file, then explicitly set flags.
	cfg = config.Default()

	globalFlags struct {
		ConfigFile string
		LogLevel   string
	}

	overrides config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hackvm",
	Short: "Translate, assemble and run Hack VM programs",
	Long: `hackvm lowers stack VM code (.vm files) to Hack assembly, assembles it
into ROM images and runs them on an emulated Hack machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return before(cmd, args)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigFile, "config", "", "TOML or YAML settings `file`")
	flags.StringVar(&globalFlags.LogLevel, "log-level", "warn", "log messages above specified level (trace, debug, info, warn, error, fatal)")

	defaults := config.Default()
	flags.Uint16Var(&overrides.StackBase, "stack-base", defaults.StackBase, "initial SP set by the bootstrap")
	flags.StringVar(&overrides.Entry, "entry", defaults.Entry, "function called by the bootstrap")
	flags.StringVar(&overrides.Bootstrap, "bootstrap", defaults.Bootstrap, "emit the bootstrap: auto (directories only), always, never")
	flags.StringVar(&overrides.StaticScope, "static-scope", defaults.StaticScope, "static segment naming: unit or global")
	flags.BoolVar(&overrides.Comments, "comments", defaults.Comments, "precede each generated block with the VM command")
	flags.Uint64Var(&overrides.MaxCycles, "cycles", defaults.MaxCycles, "instruction budget when running a program")

	rootCmd.AddCommand(
		_translateCommand,
		_assembleCommand,
		_runCommand,
		_dumpCommand,
	)
}

func before(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(globalFlags.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid --log-level")
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	if globalFlags.ConfigFile != "" {
		loaded, err := config.Load(globalFlags.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logrus.Debugf("loaded settings from %s", globalFlags.ConfigFile)
	}

	applyOverrides(cmd.Flags())
	return errors.Wrap(cfg.Validate(), "invalid settings")
}

// applyOverrides copies flags the user actually set over cfg.
func applyOverrides(flags *pflag.FlagSet) {
	if flags.Changed("stack-base") {
		cfg.StackBase = overrides.StackBase
	}
	if flags.Changed("entry") {
		cfg.Entry = overrides.Entry
	}
	if flags.Changed("bootstrap") {
		cfg.Bootstrap = overrides.Bootstrap
	}
	if flags.Changed("static-scope") {
		cfg.StaticScope = overrides.StaticScope
	}
	if flags.Changed("comments") {
		cfg.Comments = overrides.Comments
	}
	if flags.Changed("cycles") {
		cfg.MaxCycles = overrides.MaxCycles
	}
}

func newProgram() *driver.Program {
	return driver.New(cfg, logrus.StandardLogger())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logrus.Debugf("%+v", err)
		atexit.Exit(exitCode)
	}
	atexit.Exit(0)
}

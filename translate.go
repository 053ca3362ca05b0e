//go:build !js

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"hackvm/pkg/utils"
)

var (
	translateFlags struct {
		Output string
	}

	_translateCommand = &cobra.Command{
		Use:   "translate [flags] FILE.vm|DIR",
		Short: "Translate VM code to Hack assembly",
		Long: `Translates a .vm file, or every .vm file of a directory, to one Hack
assembly file. Directory programs start with a bootstrap that sets SP and calls
the entry function. Nothing is written if any unit fails to translate.`,
		Args: cobra.ExactArgs(1),
		RunE: translateCmd,
	}
)

func init() {
	_translateCommand.Flags().StringVarP(&translateFlags.Output, "output", "o", "", "output `file`, - for stdout (default: input with .asm extension)")
}

func translateCmd(cmd *cobra.Command, args []string) error {
	code, stats, err := newProgram().TranslatePath(args[0])
	if err != nil {
		return err
	}

	output := translateFlags.Output
	if output == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), code)
		return err
	}
	if output == "" {
		output = utils.DefaultOutputPath(args[0], ".asm")
	}

	if err := os.WriteFile(output, []byte(code), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", output)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "translated %d units, %d commands -> %s (%d lines)\n", stats.Units, stats.Commands, output, stats.Lines)
	return nil
}

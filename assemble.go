//go:build !js

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"hackvm/pkg/asm"
	"hackvm/pkg/utils"
)

var (
	assembleFlags struct {
		Output string
		Binary bool
	}

	_assembleCommand = &cobra.Command{
		Use:   "assemble [flags] FILE.asm",
		Short: "Assemble Hack assembly into a ROM image",
		Args:  cobra.ExactArgs(1),
		RunE:  assembleCmd,
	}
)

func init() {
	flags := _assembleCommand.Flags()
	flags.StringVarP(&assembleFlags.Output, "output", "o", "", "output `file` (default: input with .hack or .bin extension)")
	flags.BoolVar(&assembleFlags.Binary, "binary", false, "write little-endian words instead of .hack text")
}

func assembleCmd(cmd *cobra.Command, args []string) error {
	source, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "reading %s", args[0])
	}

	words, _, err := asm.Assemble(string(source))
	if err != nil {
		return errors.Wrapf(err, "assembling %s", args[0])
	}

	ext, data := ".hack", []byte(asm.FormatHack(words))
	if assembleFlags.Binary {
		ext, data = ".bin", asm.EncodeBinary(words)
	}

	output := assembleFlags.Output
	if output == "" {
		output = utils.DefaultOutputPath(args[0], ext)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", output)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "assembled %d words -> %s\n", len(words), output)
	return nil
}

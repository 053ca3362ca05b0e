//go:build !js

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"hackvm/pkg/translator"
	"hackvm/pkg/utils"
)

var (
	dumpFlags struct {
		Tokens bool
	}

	_dumpCommand = &cobra.Command{
		Use:   "dump [flags] FILE.vm",
		Short: "Show the tokens, commands and assembly of one unit",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpCmd,
	}
)

func init() {
	_dumpCommand.Flags().BoolVar(&dumpFlags.Tokens, "tokens", false, "also list the lexer tokens")
}

func dumpCmd(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrapf(err, "reading %s", args[0])
	}
	return dump(cmd.OutOrStdout(), utils.UnitName(args[0]), string(data), dumpFlags.Tokens)
}

func dump(w io.Writer, unit, src string, showTokens bool) error {
	if showTokens {
		tokens := translator.Lex(src)
		fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
		for _, tok := range tokens {
			fmt.Fprintln(w, " ", tok)
		}
		fmt.Fprintln(w)
	}

	parser := translator.NewParser(unit, src)
	gen := translator.NewGenerator(unit, cfg.Options())

	fmt.Fprintln(w, "Commands")
	for {
		cmd, err := parser.Next()
		if err != nil {
			return err
		}
		if cmd == nil {
			return nil
		}
		lines, err := gen.Translate(cmd)
		if err != nil {
			return err
		}

		pos := cmd.Position()
		fmt.Fprintf(w, "%4d  %-32s %d instructions\n", pos.Line, cmd, countInstructions(lines))
		fmt.Fprintf(w, "      %s\n", strings.Join(lines, " "))
	}
}

// countInstructions skips label pseudo-instructions.
func countInstructions(lines []string) int {
	n := 0
	for _, l := range lines {
		if !strings.HasPrefix(l, "(") {
			n++
		}
	}
	return n
}

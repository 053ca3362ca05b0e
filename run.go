//go:build !js

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"hackvm/pkg/cpu"
)

var (
	runFlags struct {
		Snapshot   string
		Screenshot string
		Scale      int
	}

	_runCommand = &cobra.Command{
		Use:   "run [flags] FILE.vm|DIR|FILE.asm|FILE.hack|FILE.bin|STATE.zip",
		Short: "Run a program on the emulated Hack machine",
		Long: `Builds the program if needed, runs it until it settles in a self-loop or
runs out of cycles, and prints the final stack pointer and stack top.
A .zip argument resumes a snapshot written by --snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: runCmd,
	}
)

func init() {
	flags := _runCommand.Flags()
	flags.StringVar(&runFlags.Snapshot, "snapshot", "", "save the machine state to `file` on exit")
	flags.StringVar(&runFlags.Screenshot, "screenshot", "", "save the screen as PNG `file` after the run")
	flags.IntVar(&runFlags.Scale, "scale", 1, "screenshot scale factor")
}

func runCmd(cmd *cobra.Command, args []string) error {
	program := newProgram()

	var (
		c   *cpu.CPU
		err error
	)
	if strings.EqualFold(filepath.Ext(args[0]), ".zip") {
		c = cpu.NewCPU()
		if err := c.RestoreFromFile(args[0]); err != nil {
			return errors.Wrapf(err, "restoring %s", args[0])
		}
		c.Halted = false
		err = c.RunFor(cfg.MaxCycles)
	} else {
		words, buildErr := program.Build(args[0])
		if buildErr != nil {
			return buildErr
		}
		c, err = program.Execute(words)
		if c == nil {
			return err
		}
	}

	// Registered before reporting so a run that hit the cycle limit still
	// leaves a resumable snapshot.
	if runFlags.Snapshot != "" {
		path := runFlags.Snapshot
		atexit.Register(func() {
			if err := c.HibernateToFile(path); err != nil {
				logrus.Errorf("saving snapshot %s: %v", path, err)
				return
			}
			logrus.Infof("snapshot saved to %s", path)
		})
	}

	if runFlags.Screenshot != "" {
		if err := c.SaveScreenshot(runFlags.Screenshot, runFlags.Scale); err != nil {
			return errors.Wrapf(err, "saving screenshot %s", runFlags.Screenshot)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s after %d cycles: PC=%d SP=%d top=%d\n",
		state(c), c.Cycles, c.PC, c.RAM[cpu.SP], int16(c.StackTop()))
	return err
}

func state(c *cpu.CPU) string {
	if c.Halted {
		return "halted"
	}
	return "stopped"
}

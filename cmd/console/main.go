package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/driver"
	"hackvm/pkg/utils"
)

// chunk is the number of instructions run between autosave checks.
const chunk = 100_000

// runner executes a machine in chunks and, every interval, saves a snapshot
// so a long run can be resumed with "hackvm run STATE.zip".
type runner struct {
	vm       *cpu.CPU
	autosave string
	ticks    <-chan time.Time
}

func (r *runner) run(maxCycles uint64) error {
	for !r.vm.Halted {
		if r.vm.Cycles >= maxCycles {
			return errors.Wrapf(cpu.ErrCycleLimit, "after %d cycles", r.vm.Cycles)
		}
		budget := maxCycles - r.vm.Cycles
		if budget > chunk {
			budget = chunk
		}
		if err := r.vm.RunFor(budget); err != nil && !errors.Is(err, cpu.ErrCycleLimit) {
			return err
		}

		select {
		case <-r.ticks:
			r.save()
		default:
		}
	}
	return nil
}

func (r *runner) save() {
	if r.autosave == "" {
		return
	}
	if err := r.vm.HibernateToFile(r.autosave); err != nil {
		logrus.Warnf("autosave %s: %v", r.autosave, err)
		return
	}
	logrus.Debugf("autosaved to %s at cycle %d", r.autosave, r.vm.Cycles)
}

func main() {
	var (
		configFile = pflag.String("config", "", "TOML or YAML settings `file`")
		entry      = pflag.String("entry", "", "function called by the bootstrap (default from config)")
		autosave   = pflag.String("autosave", "", "snapshot `file` refreshed while running and written on exit")
		interval   = pflag.Duration("interval", 3*time.Second, "autosave interval")
		showScreen = pflag.Bool("screen", true, "print the screen as text when the program stops")
		showAsm    = pflag.Bool("show-asm", false, "print the generated assembly before running")
	)
	pflag.Parse()

	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: console [flags] FILE.vm|DIR|FILE.asm")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logrus.Fatal(err)
		}
		cfg = loaded
	}
	if *entry != "" {
		cfg.Entry = *entry
	}

	fullPath, baseDir, err := utils.GetPathInfo(pflag.Arg(0))
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.Debugf("running %s from %s", fullPath, baseDir)

	program := driver.New(cfg, logrus.StandardLogger())
	if *showAsm && !strings.HasSuffix(fullPath, ".asm") {
		code, err := program.RunnableSource(fullPath)
		if err != nil {
			logrus.Fatalf("translation failed: %v", err)
		}
		fmt.Print("Generated Assembly:\n", code, "\n")
	}

	words, err := program.Build(fullPath)
	if err != nil {
		logrus.Fatalf("build failed: %v", err)
	}
	vm := cpu.NewCPU()
	if err := vm.Load(words); err != nil {
		logrus.Fatal(err)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	r := &runner{vm: vm, autosave: *autosave, ticks: ticker.C}
	runErr := r.run(cfg.MaxCycles)
	r.save()

	if *showScreen {
		fmt.Print(renderScreen(vm, 4, 8))
	}
	fmt.Printf("cycles=%d PC=%d SP=%d top=%d halted=%t\n",
		vm.Cycles, vm.PC, vm.RAM[cpu.SP], int16(vm.StackTop()), vm.Halted)

	if runErr != nil {
		logrus.Fatal(runErr)
	}
}

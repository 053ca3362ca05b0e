// Package driver runs whole programs through the translator: it reads the
// units of a program, translates them in order behind an optional bootstrap,
// and turns the result into a ROM image ready for the emulator.
package driver

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hackvm/pkg/asm"
	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/translator"
)

// ErrEntryMissing is returned when a bootstrapped program never defines the
// entry function.
var ErrEntryMissing = errors.New("entry function not defined")

// Stats summarizes one translation.
type Stats struct {
	Units        int
	Commands     int
	Lines        int // assembly instructions and labels, comments excluded
	Bootstrapped bool
}

type Program struct {
	cfg *config.Config
	log logrus.FieldLogger
}

// New returns a Program using cfg. A nil cfg means config.Default(); a nil
// log means the logrus standard logger.
func New(cfg *config.Config, log logrus.FieldLogger) *Program {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Program{cfg: cfg, log: log}
}

func (p *Program) Config() *config.Config { return p.cfg }

// Translate writes the assembly for every unit of src to sink. Output is
// buffered and written only after the whole program translated, so a failed
// run leaves sink untouched.
func (p *Program) Translate(src Source, sink io.Writer) (Stats, error) {
	var stats Stats

	units, err := src.Units()
	if err != nil {
		return stats, err
	}
	if len(units) == 0 {
		return stats, ErrNoUnits
	}

	var buf bytes.Buffer
	opts := p.cfg.Options()

	if p.cfg.WantBootstrap(src.MultiUnit()) {
		g := translator.NewGenerator(translator.BootstrapScope, opts)
		p.writeBlock(&buf, "bootstrap "+p.cfg.Entry, g.Bootstrap(p.cfg.Entry), &stats)
		stats.Bootstrapped = true
	}

	defined := false
	for _, u := range units {
		found, err := p.translateUnit(&buf, u, opts, &stats)
		if err != nil {
			return stats, errors.Wrapf(err, "translating %s", u.Name)
		}
		defined = defined || found
		stats.Units++
	}

	if stats.Bootstrapped && !defined {
		return stats, errors.Wrapf(ErrEntryMissing, "%s", p.cfg.Entry)
	}

	if _, err := sink.Write(buf.Bytes()); err != nil {
		return stats, errors.Wrap(err, "writing output")
	}

	p.log.WithFields(logrus.Fields{
		"units":     stats.Units,
		"commands":  stats.Commands,
		"lines":     stats.Lines,
		"bootstrap": stats.Bootstrapped,
	}).Info("translation complete")
	return stats, nil
}

// translateUnit reports whether the unit defines the entry function.
func (p *Program) translateUnit(buf *bytes.Buffer, u Unit, opts translator.Options, stats *Stats) (bool, error) {
	log := p.log.WithField("unit", u.Name)
	log.Debug("translating unit")

	parser := translator.NewParser(u.Name, u.Source)
	gen := translator.NewGenerator(u.Name, opts)

	defined := false
	commands := 0
	for {
		cmd, err := parser.Next()
		if err != nil {
			return false, err
		}
		if cmd == nil {
			break
		}
		if fn, ok := cmd.(translator.Function); ok && fn.Name == p.cfg.Entry {
			defined = true
		}

		lines, err := gen.Translate(cmd)
		if err != nil {
			return false, err
		}
		p.writeBlock(buf, cmd.String(), lines, stats)
		commands++
	}

	stats.Commands += commands
	log.WithField("commands", commands).Debug("unit translated")
	return defined, nil
}

func (p *Program) writeBlock(buf *bytes.Buffer, comment string, lines []string, stats *Stats) {
	if p.cfg.Comments {
		buf.WriteString("// " + comment + "\n")
	}
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	stats.Lines += len(lines)
}

// TranslatePath opens path and translates it to a string.
func (p *Program) TranslatePath(path string) (string, Stats, error) {
	src, err := Open(path)
	if err != nil {
		return "", Stats{}, err
	}
	var out strings.Builder
	stats, err := p.Translate(src, &out)
	if err != nil {
		return "", stats, err
	}
	return out.String(), stats, nil
}

// Build produces a ROM image from path: a .vm file or directory of them,
// Hack assembly (.asm), or an assembled image (.hack text or .bin).
func (p *Program) Build(path string) ([]uint16, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hack":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		words, err := asm.ParseHack(string(data))
		return words, errors.Wrapf(err, "decoding %s", path)
	case ".bin":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		words, err := asm.DecodeBinary(data)
		return words, errors.Wrapf(err, "decoding %s", path)
	}

	code, err := p.RunnableSource(path)
	if err != nil {
		return nil, err
	}
	return p.assemble(path, code)
}

// RunnableSource returns the assembly Build assembles for path: the file
// itself for .asm, otherwise the translation of the VM program. VM programs
// are bootstrapped unless the config says never, since nothing else would
// initialize SP.
func (p *Program) RunnableSource(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "reading %s", path)
		}
		return string(data), nil
	}

	runCfg := *p.cfg
	if runCfg.Bootstrap == config.BootstrapAuto {
		runCfg.Bootstrap = config.BootstrapAlways
	}
	code, _, err := New(&runCfg, p.log).TranslatePath(path)
	return code, err
}

func (p *Program) assemble(path, code string) ([]uint16, error) {
	words, _, err := asm.Assemble(code)
	if err != nil {
		return nil, errors.Wrapf(err, "assembling %s", path)
	}
	p.log.WithFields(logrus.Fields{"path": path, "words": len(words)}).Debug("assembled")
	return words, nil
}

// Execute loads words into a fresh machine and runs it until it halts or the
// configured cycle budget runs out. The machine is returned in both cases.
func (p *Program) Execute(words []uint16) (*cpu.CPU, error) {
	c := cpu.NewCPU()
	if err := c.Load(words); err != nil {
		return nil, errors.Wrap(err, "loading program")
	}

	err := c.RunFor(p.cfg.MaxCycles)
	p.log.WithFields(logrus.Fields{
		"cycles": c.Cycles,
		"halted": c.Halted,
		"sp":     c.RAM[cpu.SP],
	}).Info("execution finished")
	if err != nil {
		return c, errors.Wrapf(err, "after %d cycles", c.Cycles)
	}
	return c, nil
}

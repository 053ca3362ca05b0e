package driver_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"hackvm/pkg/asm"
	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/driver"
	"hackvm/pkg/translator"
)

const mainUnit = `
function Main.main 0
push constant 7
push constant 8
add
return
`

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(GinkgoWriter)
	log.SetLevel(logrus.DebugLevel)
	return log
}

func writeUnits(dir string, files map[string]string) {
	for name, src := range files {
		Expect(os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644)).To(Succeed())
	}
}

var _ = Describe("Program", func() {
	var (
		mockCtrl *gomock.Controller
		source   *MockSource
		cfg      *config.Config
		program  *driver.Program
		sink     *bytes.Buffer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		source = NewMockSource(mockCtrl)
		cfg = config.Default()
		program = driver.New(cfg, testLogger())
		sink = &bytes.Buffer{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should translate a single unit without bootstrap", func() {
		source.EXPECT().Units().Return([]driver.Unit{{Name: "Main", Source: "push constant 3\nneg"}}, nil)
		source.EXPECT().MultiUnit().Return(false)

		stats, err := program.Translate(source, sink)

		Expect(err).NotTo(HaveOccurred())
		Expect(sink.String()).To(Equal(strings.Join([]string{
			"@3", "D=A", "@SP", "A=M", "M=D", "@SP", "M=M+1",
			"@SP", "A=M-1", "M=-M",
		}, "\n") + "\n"))
		Expect(stats).To(Equal(driver.Stats{Units: 1, Commands: 2, Lines: 10}))
	})

	It("should prefix the bootstrap for multi-unit programs", func() {
		source.EXPECT().Units().Return([]driver.Unit{
			{Name: "Main", Source: "function Main.helper 0\npush constant 1\nreturn"},
			{Name: "Sys", Source: "function Sys.init 0\nlabel END\ngoto END"},
		}, nil)
		source.EXPECT().MultiUnit().Return(true)

		stats, err := program.Translate(source, sink)

		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Bootstrapped).To(BeTrue())
		Expect(stats.Units).To(Equal(2))
		Expect(sink.String()).To(HavePrefix("@256\nD=A\n@SP\nM=D\n"))
		Expect(sink.String()).To(ContainSubstring("(Bootstrap:ret.0)"))
		Expect(sink.String()).To(ContainSubstring("(Sys.init$END)"))
	})

	It("should fail without writing when the entry function is missing", func() {
		source.EXPECT().Units().Return([]driver.Unit{{Name: "Main", Source: mainUnit}}, nil)
		source.EXPECT().MultiUnit().Return(true)

		_, err := program.Translate(source, sink)

		Expect(errors.Is(err, driver.ErrEntryMissing)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("Sys.init"))
		Expect(sink.Len()).To(BeZero())
	})

	It("should accept a configured entry function", func() {
		cfg.Entry = "Main.main"
		cfg.Bootstrap = config.BootstrapAlways
		source.EXPECT().Units().Return([]driver.Unit{{Name: "Main", Source: mainUnit}}, nil)
		source.EXPECT().MultiUnit().Return(false).AnyTimes()

		_, err := program.Translate(source, sink)

		Expect(err).NotTo(HaveOccurred())
		Expect(sink.String()).To(ContainSubstring("@Main.main\n0;JMP\n"))
	})

	It("should abort on the first syntax error and write nothing", func() {
		source.EXPECT().Units().Return([]driver.Unit{
			{Name: "Good", Source: mainUnit},
			{Name: "Bad", Source: "function Bad.f 0\npush heap 2"},
		}, nil)
		source.EXPECT().MultiUnit().Return(false)

		_, err := program.Translate(source, sink)

		Expect(errors.Is(err, translator.ErrInvalidSegment)).To(BeTrue())
		var synErr *translator.SyntaxError
		Expect(errors.As(err, &synErr)).To(BeTrue())
		Expect(synErr.Unit).To(Equal("Bad"))
		Expect(synErr.Line).To(Equal(2))
		Expect(err.Error()).To(HavePrefix("translating Bad: "))
		Expect(sink.Len()).To(BeZero())
	})

	It("should propagate source errors", func() {
		boom := errors.New("disk on fire")
		source.EXPECT().Units().Return(nil, boom)

		_, err := program.Translate(source, sink)

		Expect(err).To(MatchError(boom))
	})

	It("should reject a program with no units", func() {
		source.EXPECT().Units().Return(nil, nil)

		_, err := program.Translate(source, sink)

		Expect(errors.Is(err, driver.ErrNoUnits)).To(BeTrue())
	})

	It("should annotate blocks when comments are enabled", func() {
		cfg.Comments = true
		source.EXPECT().Units().Return([]driver.Unit{{Name: "Main", Source: mainUnit}}, nil)
		source.EXPECT().MultiUnit().Return(false)

		stats, err := program.Translate(source, sink)

		Expect(err).NotTo(HaveOccurred())
		Expect(sink.String()).To(HavePrefix("// function Main.main 0\n(Main.main)\n// push constant 7\n"))
		Expect(sink.String()).To(ContainSubstring("// return\n"))

		// Comments are not counted and still assemble.
		words, _, err := asm.Assemble(sink.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(stats.Lines - 1))
	})
})

var _ = Describe("Sources", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should read every .vm file of a directory in name order", func() {
		writeUnits(dir, map[string]string{
			"Sys.vm":    "function Sys.init 0",
			"Main.vm":   "function Main.main 0",
			"notes.txt": "ignored",
		})
		Expect(os.Mkdir(filepath.Join(dir, "sub.vm"), 0o755)).To(Succeed())

		src, err := driver.Open(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(src.MultiUnit()).To(BeTrue())

		units, err := src.Units()
		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(Equal([]driver.Unit{
			{Name: "Main", Source: "function Main.main 0"},
			{Name: "Sys", Source: "function Sys.init 0"},
		}))
	})

	It("should fail on a directory without units", func() {
		src, err := driver.Open(dir)
		Expect(err).NotTo(HaveOccurred())

		_, err = src.Units()
		Expect(errors.Is(err, driver.ErrNoUnits)).To(BeTrue())
	})

	It("should open a single file", func() {
		writeUnits(dir, map[string]string{"Prog.vm": "add"})

		src, err := driver.Open(filepath.Join(dir, "Prog.vm"))
		Expect(err).NotTo(HaveOccurred())
		Expect(src.MultiUnit()).To(BeFalse())

		units, err := src.Units()
		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(ConsistOf(driver.Unit{Name: "Prog", Source: "add"}))
	})

	It("should reject other files", func() {
		writeUnits(dir, map[string]string{"Prog.asm": "@0"})

		_, err := driver.Open(filepath.Join(dir, "Prog.asm"))
		Expect(errors.Is(err, driver.ErrNotVM)).To(BeTrue())

		_, err = driver.Open(filepath.Join(dir, "absent.vm"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Build and Execute", func() {
	var (
		dir     string
		cfg     *config.Config
		program *driver.Program
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		cfg = config.Default()
		program = driver.New(cfg, testLogger())
	})

	It("should run a recursive multi-unit program", func() {
		writeUnits(dir, map[string]string{
			"Sys.vm": `
function Sys.init 0
push constant 6
call Main.fib 1
pop static 0
label HALT
goto HALT
`,
			"Main.vm": `
// fib(n) = n for n < 2
function Main.fib 0
push argument 0
push constant 2
lt
if-goto BASE
push argument 0
push constant 1
sub
call Main.fib 1
push argument 0
push constant 2
sub
call Main.fib 1
add
return
label BASE
push argument 0
return
`,
		})

		words, err := program.Build(dir)
		Expect(err).NotTo(HaveOccurred())

		c, err := program.Execute(words)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Halted).To(BeTrue())
		Expect(c.RAM[16]).To(Equal(uint16(8)))
		Expect(c.RAM[cpu.SP]).To(Equal(uint16(261)))
	})

	It("should bootstrap a single file when running it", func() {
		cfg.Entry = "Main.main"
		path := filepath.Join(dir, "Main.vm")
		writeUnits(dir, map[string]string{"Main.vm": mainUnit})

		words, err := program.Build(path)
		Expect(err).NotTo(HaveOccurred())

		c, err := program.Execute(words)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RAM[256]).To(Equal(uint16(15)))
		Expect(c.RAM[cpu.SP]).To(Equal(uint16(257)))
	})

	It("should expose the assembly it runs", func() {
		cfg.Entry = "Main.main"
		path := filepath.Join(dir, "Main.vm")
		writeUnits(dir, map[string]string{"Main.vm": mainUnit})

		translated, _, err := program.TranslatePath(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(translated).NotTo(ContainSubstring("(Bootstrap:ret.0)"))

		code, err := program.RunnableSource(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(code).To(HavePrefix("@256\n"))
		Expect(code).To(ContainSubstring("(Bootstrap:ret.0)"))

		fromSource, _, err := asm.Assemble(code)
		Expect(err).NotTo(HaveOccurred())
		words, err := program.Build(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(Equal(fromSource))
	})

	It("should keep statics apart per unit unless configured global", func() {
		files := map[string]string{
			"Main.vm": "function Main.set 0\npush constant 11\npop static 0\npush constant 0\nreturn",
			"Sys.vm": `
function Sys.init 0
call Main.set 0
pop temp 0
push constant 22
pop static 0
label HALT
goto HALT
`,
		}
		writeUnits(dir, files)

		words, err := program.Build(dir)
		Expect(err).NotTo(HaveOccurred())
		c, err := program.Execute(words)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RAM[16:18]).To(Equal([]uint16{11, 22}))

		cfg.StaticScope = "global"
		words, err = program.Build(dir)
		Expect(err).NotTo(HaveOccurred())
		c, err = program.Execute(words)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RAM[16:18]).To(Equal([]uint16{22, 0}))
	})

	It("should load assembly and assembled images", func() {
		code := "@5\nD=A\n@7\nD=D+A\n@R0\nM=D\n"
		writeUnits(dir, map[string]string{"add.asm": code})

		words, err := program.Build(filepath.Join(dir, "add.asm"))
		Expect(err).NotTo(HaveOccurred())
		Expect(words).To(HaveLen(6))

		Expect(os.WriteFile(filepath.Join(dir, "add.hack"), []byte(asm.FormatHack(words)), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "add.bin"), asm.EncodeBinary(words), 0o644)).To(Succeed())

		for _, name := range []string{"add.hack", "add.bin"} {
			loaded, err := program.Build(filepath.Join(dir, name))
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(words))
		}

		c, err := program.Execute(words)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.RAM[0]).To(Equal(uint16(12)))
	})

	It("should report programs that never settle", func() {
		cfg.MaxCycles = 100
		words, _, err := asm.Assemble("(A)\n@B\n0;JMP\n(B)\n@A\n0;JMP")
		Expect(err).NotTo(HaveOccurred())

		c, err := program.Execute(words)
		Expect(errors.Is(err, cpu.ErrCycleLimit)).To(BeTrue())
		Expect(c.Halted).To(BeFalse())
	})
})

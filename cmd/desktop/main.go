package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"hackvm/pkg/config"
	"hackvm/pkg/cpu"
	"hackvm/pkg/driver"
	"hackvm/pkg/utils"
)

// Game shows the Hack screen and feeds the held key into the keyboard
// register. The machine only runs inside Update.
type Game struct {
	vm            *cpu.CPU
	stepsPerFrame int
	screenImg     *ebiten.Image // reused 512×256 canvas
	showStatus    bool
	screenshot    string
}

func (g *Game) Update() error {
	g.vm.SetKey(hackKey(ebiten.IsKeyPressed))

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		g.showStatus = !g.showStatus
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPrintScreen) && g.screenshot != "" {
		if err := g.vm.SaveScreenshot(g.screenshot, 2); err != nil {
			logrus.Errorf("screenshot: %v", err)
		} else {
			logrus.Infof("screenshot saved to %s", g.screenshot)
		}
	}

	for i := 0; i < g.stepsPerFrame; i++ {
		// Break early once the program settles.
		if g.vm.Halted {
			break
		}
		g.vm.Step()
	}

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.screenImg == nil {
		g.screenImg = ebiten.NewImage(cpu.ScreenWidth, cpu.ScreenHeight)
	}
	g.screenImg.WritePixels(g.vm.GetFramebufferRGBA())
	screen.DrawImage(g.screenImg, nil)

	if g.showStatus {
		msg := fmt.Sprintf("PC=%d SP=%d KBD=%d cycles=%d halted=%t",
			g.vm.PC, g.vm.RAM[cpu.SP], g.vm.RAM[cpu.KBD], g.vm.Cycles, g.vm.Halted)
		ebitenutil.DebugPrintAt(screen, msg, 4, cpu.ScreenHeight-16)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return cpu.ScreenWidth, cpu.ScreenHeight
}

func main() {
	var (
		configFile = pflag.String("config", "", "TOML or YAML settings `file`")
		entry      = pflag.String("entry", "", "function called by the bootstrap (default from config)")
		speed      = pflag.Int("speed", 20000, "instructions executed per frame")
		scale      = pflag.Int("scale", 2, "window scale")
		snapshot   = pflag.String("snapshot", "", "save the machine state to `file` when the window closes")
		shotPath   = pflag.String("screenshot", "", "PNG `file` written when Print Screen is pressed")
		logLevel   = pflag.String("log-level", "info", "log level")
	)
	pflag.Parse()

	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logrus.SetLevel(level)
	}
	if pflag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] FILE.vm|DIR|FILE.asm|FILE.hack|STATE.zip")
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

	fullPath, _, err := utils.GetPathInfo(pflag.Arg(0))
	if err != nil {
		logrus.Fatal(err)
	}

	vm, err := load(cfg, fullPath)
	if err != nil {
		logrus.Fatalf("loading %s: %v", fullPath, err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cpu.ScreenWidth*(*scale), cpu.ScreenHeight*(*scale))
	ebiten.SetWindowTitle("Hack - " + utils.UnitName(fullPath))

	game := &Game{vm: vm, stepsPerFrame: *speed, screenshot: *shotPath}
	if err := ebiten.RunGame(game); err != nil {
		logrus.Fatal(err)
	}

	if *snapshot != "" {
		if err := vm.HibernateToFile(*snapshot); err != nil {
			logrus.Fatalf("saving snapshot: %v", err)
		}
		logrus.Infof("snapshot saved to %s", *snapshot)
	}
}

// load builds path into a fresh machine, or resumes a snapshot.
func load(cfg *config.Config, path string) (*cpu.CPU, error) {
	vm := cpu.NewCPU()
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		if err := vm.RestoreFromFile(path); err != nil {
			return nil, err
		}
		vm.Halted = false
		return vm, nil
	}

	words, err := driver.New(cfg, logrus.StandardLogger()).Build(path)
	if err != nil {
		return nil, err
	}
	if err := vm.Load(words); err != nil {
		return nil, err
	}
	return vm, nil
}

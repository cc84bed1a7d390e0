package main

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"goshade/pkg/builtins"
	"goshade/pkg/bytecode"
	"goshade/pkg/compiler"
	"goshade/pkg/scene"
	"goshade/pkg/utils"
	"goshade/pkg/vm"
)

// Well-known in-parameter names the preview drives itself. Any other
// in-parameter comes from the scene file.
const (
	paramU    = "u"
	paramV    = "v"
	paramTime = "time"
)

type Game struct {
	sc  *scene.Scene
	reg *builtins.Registry

	prog    *bytecode.Program
	machine *vm.VM

	img    *ebiten.Image // reused canvas, one texel per shader run
	pixels []byte

	// which conventional in-parameters the shader declares
	hasU, hasV, hasTime bool

	// colorOut is the first vec3 out-parameter, floatOut the first float
	// one. vec3 wins; with neither, the entry function's result is used
	// as a grayscale value.
	colorOut string
	floatOut string

	start       time.Time
	showOverlay bool
	lastErr     error
}

// load (re)compiles the scene's shader and rebuilds the machine. Kept
// separate from main so the R key can hot-reload.
func (g *Game) load() error {
	src, baseDir, err := utils.ReadSource(g.sc.ShaderPath())
	if err != nil {
		return err
	}
	prog, err := compiler.Compile(src, baseDir, g.reg)
	if err != nil {
		return err
	}

	machine := vm.New(prog, g.reg)

	inputs, err := g.sc.InputValues()
	if err != nil {
		return err
	}
	for name, v := range inputs {
		if err := machine.Set(name, v); err != nil {
			return err
		}
	}

	g.prog = prog
	g.machine = machine
	g.hasU = hasFloatGlobal(prog, paramU)
	g.hasV = hasFloatGlobal(prog, paramV)
	g.hasTime = hasFloatGlobal(prog, paramTime)

	g.colorOut = ""
	g.floatOut = ""
	for _, name := range prog.OutParams {
		switch prog.Globals[name].Type {
		case bytecode.TypeVec3:
			if g.colorOut == "" {
				g.colorOut = name
			}
		case bytecode.TypeF32:
			if g.floatOut == "" {
				g.floatOut = name
			}
		}
	}
	return nil
}

func hasFloatGlobal(prog *bytecode.Program, name string) bool {
	sym, ok := prog.Globals[name]
	return ok && sym.Type == bytecode.TypeF32
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.showOverlay = !g.showOverlay
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.lastErr = g.load()
	}
	if g.machine == nil {
		return nil
	}

	w := g.sc.Display.Width
	h := g.sc.Display.Height
	if g.pixels == nil {
		g.pixels = make([]byte, w*h*4)
	}

	if g.hasTime {
		elapsed := float32(time.Since(g.start).Seconds())
		if err := g.machine.SetFloat(paramTime, elapsed); err != nil {
			g.lastErr = err
			return nil
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if err := g.shadePixel(x, y, w, h); err != nil {
				g.lastErr = err
				return nil
			}
		}
	}
	g.lastErr = nil
	return nil
}

// shadePixel runs the shader once and writes the RGBA texel for (x, y).
func (g *Game) shadePixel(x, y, w, h int) error {
	if g.hasU {
		if err := g.machine.SetFloat(paramU, float32(x)/float32(w-1)); err != nil {
			return err
		}
	}
	if g.hasV {
		if err := g.machine.SetFloat(paramV, float32(y)/float32(h-1)); err != nil {
			return err
		}
	}

	result, err := g.machine.Invoke(g.sc.Shader.Entry)
	if err != nil {
		return err
	}

	var r, gr, b float32
	switch {
	case g.colorOut != "":
		c, err := g.machine.GetVec3(g.colorOut)
		if err != nil {
			return err
		}
		r, gr, b = c[0], c[1], c[2]
	case g.floatOut != "":
		f, err := g.machine.GetFloat(g.floatOut)
		if err != nil {
			return err
		}
		r, gr, b = f, f, f
	case result.Kind == bytecode.TypeVec3:
		r, gr, b = result.V[0], result.V[1], result.V[2]
	case result.Kind == bytecode.TypeF32:
		r, gr, b = result.F, result.F, result.F
	}

	i := (y*w + x) * 4
	g.pixels[i+0] = toByte(r)
	g.pixels[i+1] = toByte(gr)
	g.pixels[i+2] = toByte(b)
	g.pixels[i+3] = 0xff
	return nil
}

func toByte(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f * 255)
}

func (g *Game) Draw(screen *ebiten.Image) {
	w := g.sc.Display.Width
	h := g.sc.Display.Height

	if g.pixels != nil {
		if g.img == nil {
			g.img = ebiten.NewImage(w, h)
		}
		g.img.WritePixels(g.pixels)

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(float64(g.sc.Display.Scale), float64(g.sc.Display.Scale))
		screen.DrawImage(g.img, op)
	}

	if g.lastErr != nil {
		text.Draw(screen, g.lastErr.Error(), basicfont.Face7x13, 4, 16, color.RGBA{R: 0xff, A: 0xff})
		return
	}
	if g.showOverlay {
		msg := fmt.Sprintf("%s  %0.1f fps  [O] overlay  [R] reload",
			g.sc.Shader.Path, ebiten.ActualFPS())
		text.Draw(screen, msg, basicfont.Face7x13, 4, 16, color.White)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.sc.Display.Width * g.sc.Display.Scale, g.sc.Display.Height * g.sc.Display.Scale
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: desktop scene.toml")
	}

	sc, err := scene.Load(os.Args[1])
	if err != nil {
		log.Fatalf("scene: %v", err)
	}

	game := &Game{
		sc:          sc,
		reg:         builtins.Default(),
		start:       time.Now(),
		showOverlay: true,
	}
	if err := game.load(); err != nil {
		log.Fatalf("compile: %v", err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(sc.Display.Width*sc.Display.Scale, sc.Display.Height*sc.Display.Scale)
	ebiten.SetWindowTitle("GoShade Preview")

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"goshade/pkg/builtins"
	"goshade/pkg/compiler"
	"goshade/pkg/scene"
	"goshade/pkg/utils"
	"goshade/pkg/vm"
)

// Headless runner: compiles the scene's shader, feeds the in-parameters
// from the scene file, invokes the entry function once and prints every
// out-parameter.
func main() {
	showDisasm := flag.Bool("disasm", false, "print the disassembly before running")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: console [-disasm] scene.toml")
		os.Exit(1)
	}

	sc, err := scene.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("scene: %v", err)
	}

	src, baseDir, err := utils.ReadSource(sc.ShaderPath())
	if err != nil {
		log.Fatalf("read shader: %v", err)
	}

	reg := builtins.Default()
	prog, err := compiler.Compile(src, baseDir, reg)
	if err != nil {
		log.Fatalf("compile: %v", err)
	}

	if *showDisasm {
		fmt.Print(prog.Disassemble())
		fmt.Println()
	}

	machine := vm.New(prog, reg)

	inputs, err := sc.InputValues()
	if err != nil {
		log.Fatalf("scene inputs: %v", err)
	}
	for name, v := range inputs {
		if err := machine.Set(name, v); err != nil {
			log.Fatalf("set input: %v", err)
		}
	}

	result, err := machine.Invoke(sc.Shader.Entry)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	fmt.Printf("%s() = %s\n", sc.Shader.Entry, result)
	for _, name := range prog.OutParams {
		v, err := machine.Get(name)
		if err != nil {
			log.Fatalf("read output: %v", err)
		}
		fmt.Printf("out %s = %s\n", name, v)
	}
}

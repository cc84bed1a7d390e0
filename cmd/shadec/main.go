package main

import (
	"flag"
	"fmt"
	"os"

	"goshade/pkg/builtins"
	"goshade/pkg/compiler"
	"goshade/pkg/utils"
)

const testSource = `in vec3 light_dir;
out float brightness;

float main() {
    return dot(normalize(vec3(0.0, 1.0, 0.0)), light_dir);
}
`

func main() {
	showTokens := flag.Bool("tokens", false, "dump the token stream")
	showAST := flag.Bool("ast", false, "dump the parsed program")
	output := flag.String("o", "", "write the compiled artifact to this path")
	flag.Parse()

	src := testSource
	baseDir := "."
	if flag.NArg() > 0 {
		fullPath, parentDir, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "path error:", err)
			os.Exit(1)
		}
		data, err := os.ReadFile(fullPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
		baseDir = parentDir
	}

	// Preprocess
	src, err := compiler.Preprocess(src, baseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "preprocess error:", err)
		os.Exit(1)
	}

	// Lex
	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "lex error:", err)
		os.Exit(1)
	}

	if *showTokens {
		fmt.Printf("Tokens (%d)\n", len(tokens))
		for _, tok := range tokens {
			fmt.Println(" ", tok)
		}
		fmt.Println()
	}

	// Parse
	ast, err := compiler.Parse(tokens, src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	if *showAST {
		fmt.Println("AST")
		fmt.Print(ast)
		fmt.Println()
	}

	// Fold + code generation
	if err := compiler.Fold(ast); err != nil {
		fmt.Fprintln(os.Stderr, "fold error:", err)
		os.Exit(1)
	}

	syms := compiler.NewSymbolTable()
	prog, err := compiler.Generate(ast, syms, builtins.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, "codegen error:", err)
		os.Exit(1)
	}

	fmt.Print(prog.Disassemble())

	if *output != "" {
		if err := prog.Save(*output); err != nil {
			fmt.Fprintln(os.Stderr, "write error:", err)
			os.Exit(1)
		}
		fmt.Printf("\nwrote %s (%d instruction words)\n", *output, len(prog.Code))
	}
}

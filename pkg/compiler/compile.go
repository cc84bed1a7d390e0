package compiler

import (
	"goshade/pkg/builtins"
	"goshade/pkg/bytecode"
)

// Compile runs the whole pipeline on one shader source: preprocess, lex,
// parse, constant-fold, then code generation against the given builtin
// registry. It returns the compiled artifact or the first error; a failure
// at any stage aborts the compilation and no partial artifact is returned.
func Compile(src string, baseDir string, reg *builtins.Registry) (*bytecode.Program, error) {
	src, err := Preprocess(src, baseDir)
	if err != nil {
		return nil, err
	}

	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}

	ast, err := Parse(tokens, src)
	if err != nil {
		return nil, err
	}

	if err := Fold(ast); err != nil {
		return nil, err
	}

	syms := NewSymbolTable()
	return Generate(ast, syms, reg)
}

// CompileSource compiles src with the default builtin registry and no
// include search directory.
func CompileSource(src string) (*bytecode.Program, error) {
	return Compile(src, ".", builtins.Default())
}

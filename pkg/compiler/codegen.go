package compiler

import (
	"goshade/pkg/builtins"
	"goshade/pkg/bytecode"
)

// CodeGen walks a folded Program and emits the instruction stream plus the
// symbol and function metadata of the compiled artifact. All state is owned
// by one Generate call; nothing is shared between compilations.
type CodeGen struct {
	prog *bytecode.Program
	syms *SymbolTable
	reg  *builtins.Registry

	// current function
	fn *frame
}

// opNames maps arithmetic token types to the operator keys used by the
// builtin registry.
var opNames = map[TokenType]string{
	PLUS:  "+",
	MINUS: "-",
	STAR:  "*",
	SLASH: "/",
}

// floatBinaryOps maps arithmetic token types to their inline float opcodes.
var floatBinaryOps = map[TokenType]bytecode.Opcode{
	PLUS:  bytecode.OpAddF32,
	MINUS: bytecode.OpSubF32,
	STAR:  bytecode.OpMulF32,
	SLASH: bytecode.OpDivF32,
}

// Generate lowers a folded program into a compiled artifact. Globals are
// allocated first (in-parameters before out-parameters, declaration order),
// then each function is generated in declaration order; a function's entry
// address is the instruction index current when its generation begins.
func Generate(ast *Program, syms *SymbolTable, reg *builtins.Registry) (*bytecode.Program, error) {
	cg := &CodeGen{prog: bytecode.NewProgram(), syms: syms, reg: reg}

	for _, d := range ast.Ins {
		syms.DefineGlobal(d.Name, d.Type)
		cg.prog.InParams = append(cg.prog.InParams, d.Name)
	}
	for _, d := range ast.Outs {
		syms.DefineGlobal(d.Name, d.Type)
		cg.prog.OutParams = append(cg.prog.OutParams, d.Name)
	}

	for _, f := range ast.Functions {
		if err := cg.genFunction(f); err != nil {
			return nil, err
		}
	}

	cg.prog.Globals = syms.Globals()
	cg.prog.StaticSectionSize = syms.StaticSectionSize()
	cg.prog.MinStackSize = cg.prog.StaticSectionSize + bytecode.WorkingMargin
	return cg.prog, nil
}

// genFunction lowers one function. Parameters occupy the first local slots
// (offsets 0, 4, ...) so that arguments pushed by the caller land directly
// in the callee's frame.
func (cg *CodeGen) genFunction(f *FunctionDecl) error {
	addr := len(cg.prog.Code)
	cg.fn = newFrame()

	params := make([]bytecode.TypeKind, 0, len(f.Params))
	for _, p := range f.Params {
		cg.fn.allocate(p.Name, p.Type)
		params = append(params, p.Type)
	}

	hasReturn := false
	for _, stmt := range f.Body {
		switch s := stmt.(type) {
		case *Assignment:
			if err := cg.genAssignment(s); err != nil {
				return err
			}
		case *ReturnStmt:
			if _, err := cg.genExpr(s.Expr); err != nil {
				return err
			}
			cg.prog.Emit(bytecode.OpRet, uint16(cg.fn.size))
			hasReturn = true
		default:
			return unsupportedExpr(0, "statement %T not lowered", stmt)
		}
	}

	if !hasReturn {
		cg.prog.EmitPlain(bytecode.OpVoid)
		cg.prog.Emit(bytecode.OpRet, uint16(cg.fn.size))
	}

	cg.prog.Funcs[f.Name] = bytecode.FuncMeta{
		Addr:      addr,
		Params:    params,
		FrameSize: cg.fn.size,
		Result:    f.ReturnType,
		Symbols:   cg.fn.symbols,
	}
	cg.fn = nil
	return nil
}

// genAssignment lowers  name = expr. A name already in the global table
// stores there; otherwise the name is a function local, allocated on first
// assignment and always paired with an explicit local store.
func (cg *CodeGen) genAssignment(s *Assignment) error {
	vt, err := cg.genExpr(s.Value)
	if err != nil {
		return err
	}

	if sym, ok := cg.syms.LookupGlobal(s.Name); ok {
		if sym.Type != vt {
			return unsupportedExpr(s.Line, "cannot assign %s to %s %q", vt, sym.Type, s.Name)
		}
		cg.prog.Emit(bytecode.OpMov4Global, uint16(sym.Offset))
		return nil
	}

	sym, ok := cg.fn.lookup(s.Name)
	if !ok {
		sym = cg.fn.allocate(s.Name, vt)
	} else if sym.Type != vt {
		return unsupportedExpr(s.Line, "cannot assign %s to %s %q", vt, sym.Type, s.Name)
	}
	cg.prog.Emit(bytecode.OpMov4, uint16(sym.Offset))
	return nil
}

// genExpr lowers one expression node post-order (operands before operator)
// and returns the static type of the value it leaves on the stack. Each
// node is visited exactly once.
func (cg *CodeGen) genExpr(e Expr) (bytecode.TypeKind, error) {
	switch n := e.(type) {
	case *Literal:
		cg.prog.EmitFloat(n.Value)
		return bytecode.TypeF32, nil

	case *VarRef:
		if sym, ok := cg.fn.lookup(n.Name); ok {
			cg.prog.Emit(bytecode.OpLoad4, uint16(sym.Offset))
			return sym.Type, nil
		}
		if sym, ok := cg.syms.LookupGlobal(n.Name); ok {
			cg.prog.Emit(bytecode.OpLoad4Global, uint16(sym.Offset))
			return sym.Type, nil
		}
		return 0, unresolvedSymbol(n.Name, n.Line)

	case *BinaryExpr:
		lt, err := cg.genExpr(n.Left)
		if err != nil {
			return 0, err
		}
		rt, err := cg.genExpr(n.Right)
		if err != nil {
			return 0, err
		}

		if lt == bytecode.TypeF32 && rt == bytecode.TypeF32 {
			op, ok := floatBinaryOps[n.Op]
			if !ok {
				return 0, unsupportedExpr(n.Line, "binary operator %s not lowered", n.Op)
			}
			cg.prog.EmitPlain(op)
			return bytecode.TypeF32, nil
		}

		// Mixed or vector operands dispatch through the builtin registry
		// on the static operand types. Both operands are already on the
		// stack in argument order.
		name, ok := opNames[n.Op]
		if !ok {
			return 0, unsupportedExpr(n.Line, "binary operator %s not lowered", n.Op)
		}
		idx, b, ok := cg.reg.ResolveBinary(name, lt, rt)
		if !ok {
			return 0, unsupportedExpr(n.Line, "operator %s undefined for (%s, %s)", name, lt, rt)
		}
		cg.prog.Emit(bytecode.OpCallBuiltin, uint16(idx))
		return b.Result, nil

	case *UnaryExpr:
		if n.Op != MINUS {
			return 0, unsupportedExpr(n.Line, "unary operator %s not lowered", n.Op)
		}
		ot, err := cg.genExpr(n.Right)
		if err != nil {
			return 0, err
		}
		if ot == bytecode.TypeF32 {
			// Negation is multiplication by -1.
			cg.prog.EmitFloat(-1.0)
			cg.prog.EmitPlain(bytecode.OpMulF32)
			return bytecode.TypeF32, nil
		}
		idx, b, ok := cg.reg.ResolveUnary("-", ot)
		if !ok {
			return 0, unsupportedExpr(n.Line, "operator - undefined for %s", ot)
		}
		cg.prog.Emit(bytecode.OpCallBuiltin, uint16(idx))
		return b.Result, nil

	case *FunctionCall:
		return cg.genCall(n)

	default:
		return 0, unsupportedExpr(0, "expression %T not lowered", e)
	}
}

// genCall lowers a call. Arguments are evaluated left-to-right onto the
// evaluation stack; for shader functions the CALL immediate is the entry
// address and the callee's frame pointer lands on the first argument slot.
// Names not in the function table fall back to the builtin registry.
func (cg *CodeGen) genCall(n *FunctionCall) (bytecode.TypeKind, error) {
	argTypes := make([]bytecode.TypeKind, 0, len(n.Args))
	for _, arg := range n.Args {
		t, err := cg.genExpr(arg)
		if err != nil {
			return 0, err
		}
		argTypes = append(argTypes, t)
	}

	if fm, ok := cg.prog.Funcs[n.Name]; ok {
		if len(argTypes) != len(fm.Params) {
			return 0, unsupportedExpr(n.Line, "%q takes %d argument(s), got %d",
				n.Name, len(fm.Params), len(argTypes))
		}
		for i := range fm.Params {
			if argTypes[i] != fm.Params[i] {
				return 0, unsupportedExpr(n.Line, "%q argument %d: want %s, got %s",
					n.Name, i+1, fm.Params[i], argTypes[i])
			}
		}
		cg.prog.Emit(bytecode.OpCall, uint16(fm.Addr))
		return fm.Result, nil
	}

	if idx, b, ok := cg.reg.ResolveName(n.Name, argTypes); ok {
		cg.prog.Emit(bytecode.OpCallBuiltin, uint16(idx))
		return b.Result, nil
	}

	return 0, unresolvedFunction(n.Name, n.Line)
}

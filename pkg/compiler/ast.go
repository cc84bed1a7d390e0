package compiler

import (
	"fmt"
	"strings"

	"goshade/pkg/bytecode"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
// Code generation leaves the result on top of the evaluation stack.
type Expr interface {
	exprNode()
	String() string
}

// Literal is a compile-time float constant.
//
//	brightness = 0.5;
//	             ^^^  Literal{Value: 0.5}
type Literal struct {
	Value float32
	Line  int
}

func (*Literal) exprNode()        {}
func (l *Literal) String() string { return fmt.Sprintf("%v", l.Value) }

// VarRef is a read of a named parameter or local.
//
//	return x;
//	       ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
	Line int
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// BinaryExpr represents a binary operation: Left Op Right.
type BinaryExpr struct {
	Op    TokenType // PLUS, MINUS, STAR or SLASH
	Left  Expr
	Right Expr
	Line  int
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryExpr represents Op Right. MINUS is the only defined operator.
type UnaryExpr struct {
	Op    TokenType
	Right Expr
	Line  int
}

func (*UnaryExpr) exprNode()        {}
func (u *UnaryExpr) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Right) }

// FunctionCall represents name(args). The callee may be a shader function
// or a registered builtin (vec3, normalize, dot, ...).
type FunctionCall struct {
	Name string
	Args []Expr
	Line int
}

func (*FunctionCall) exprNode() {}
func (c *FunctionCall) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// Assignment represents  name = expr;
// The target is an out parameter or a function-local introduced here.
type Assignment struct {
	Name  string
	Value Expr
	Line  int
}

func (*Assignment) stmtNode() {}
func (a *Assignment) String() string {
	return fmt.Sprintf("Assignment(%s = %s)", a.Name, a.Value)
}

// ReturnStmt represents  return expr;
type ReturnStmt struct {
	Expr Expr
	Line int
}

func (*ReturnStmt) stmtNode() {}
func (r *ReturnStmt) String() string {
	return fmt.Sprintf("ReturnStmt(%s)", r.Expr)
}

//  Declarations

// ParamDecl is one in/out parameter or function parameter. Declaration
// order is significant: it determines the storage offset.
type ParamDecl struct {
	Name string
	Type bytecode.TypeKind
	Line int
}

func (p ParamDecl) String() string {
	return fmt.Sprintf("%s %s", p.Type, p.Name)
}

// FunctionDecl represents  type name(params) { body }
type FunctionDecl struct {
	Name       string
	Params     []ParamDecl
	ReturnType bytecode.TypeKind
	Body       []Stmt
	Line       int
}

func (f *FunctionDecl) String() string {
	return fmt.Sprintf("FunctionDecl(%s %s, params=%v, body=%d stmt(s))",
		f.ReturnType, f.Name, f.Params, len(f.Body))
}

// Program is one parsed shader: in-parameters, out-parameters and
// functions, each in declaration order. Immutable input to compilation
// except for the constant-folding pass.
type Program struct {
	Ins       []ParamDecl
	Outs      []ParamDecl
	Functions []*FunctionDecl
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, d := range p.Ins {
		fmt.Fprintf(&sb, "in %s\n", d)
	}
	for _, d := range p.Outs {
		fmt.Fprintf(&sb, "out %s\n", d)
	}
	for _, f := range p.Functions {
		fmt.Fprintf(&sb, "%s\n", f)
	}
	return sb.String()
}

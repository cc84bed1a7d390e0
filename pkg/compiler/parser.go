package compiler

import (
	"fmt"
	"strings"

	"goshade/pkg/bytecode"
)

// Parser consumes the flat token slice produced by the Lexer and builds a
// Program.
//
// Grammar:
//
//	program    = (inDecl | outDecl | functionDecl)* EOF
//	inDecl     = "in" type IDENTIFIER ";"
//	outDecl    = "out" type IDENTIFIER ";"
//	functionDecl = type IDENTIFIER "(" params ")" "{" statement* "}"
//	params     = (type IDENTIFIER ("," type IDENTIFIER)*)?
//	statement  = assignment | returnStmt
//	assignment = IDENTIFIER "=" expression ";"
//	returnStmt = "return" expression ";"
//	expression = additive
//	additive   = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/") unary)*
//	unary      = "-" unary | primary
//	primary    = NUMBER | IDENTIFIER ("(" args ")")? | "(" expression ")"
//	type       = "float" | "vec3" | "void"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	lineIdx := tok.Line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", tok.Line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekNext returns the token immediately after the current one.
func (p *Parser) peekNext() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+1]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// isType reports whether tt starts a type.
func isType(tt TokenType) bool {
	return tt == FLOAT || tt == VEC3 || tt == VOID
}

// parseType consumes a type keyword.
func (p *Parser) parseType() (bytecode.TypeKind, error) {
	tok := p.advance()
	switch tok.Type {
	case FLOAT:
		return bytecode.TypeF32, nil
	case VEC3:
		return bytecode.TypeVec3, nil
	case VOID:
		return bytecode.TypeVoid, nil
	default:
		return bytecode.TypeVoid, p.fmtError(tok, "expected a type, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// Parse builds a Program from tokens. rawSource is kept only for error
// message snippets.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	p := NewParser(tokens, rawSource)
	prog := &Program{}

	for p.peek().Type != EOF {
		switch p.peek().Type {
		case IN:
			decl, err := p.parseParamDecl()
			if err != nil {
				return nil, err
			}
			prog.Ins = append(prog.Ins, decl)
		case OUT:
			decl, err := p.parseParamDecl()
			if err != nil {
				return nil, err
			}
			prog.Outs = append(prog.Outs, decl)
		default:
			fn, err := p.parseFunctionDecl()
			if err != nil {
				return nil, err
			}
			prog.Functions = append(prog.Functions, fn)
		}
	}

	return prog, nil
}

// parseParamDecl parses  ("in" | "out") type IDENTIFIER ";"
// The in/out keyword is still the current token.
func (p *Parser) parseParamDecl() (ParamDecl, error) {
	p.advance() // in / out
	kind, err := p.parseType()
	if err != nil {
		return ParamDecl{}, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return ParamDecl{}, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return ParamDecl{}, err
	}
	return ParamDecl{Name: name.Lexeme, Type: kind, Line: name.Line}, nil
}

// parseFunctionDecl parses  type IDENTIFIER "(" params ")" "{" statement* "}"
func (p *Parser) parseFunctionDecl() (*FunctionDecl, error) {
	if !isType(p.peek().Type) {
		return nil, p.fmtError(p.peek(), "expected declaration, got %s (%q)",
			p.peek().Type, p.peek().Lexeme)
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}

	var params []ParamDecl
	for p.peek().Type != RPAREN {
		if len(params) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		kind, err := p.parseType()
		if err != nil {
			return nil, err
		}
		pname, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		params = append(params, ParamDecl{Name: pname.Lexeme, Type: kind, Line: pname.Line})
	}
	p.advance() // )

	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}

	var body []Stmt
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}

	return &FunctionDecl{
		Name:       name.Lexeme,
		Params:     params,
		ReturnType: ret,
		Body:       body,
		Line:       name.Line,
	}, nil
}

// parseStatement parses one assignment or return statement.
func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch {
	case tok.Type == RETURN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &ReturnStmt{Expr: expr, Line: tok.Line}, nil

	case tok.Type == IDENTIFIER && p.peekNext().Type == ASSIGN:
		p.advance() // name
		p.advance() // =
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return &Assignment{Name: tok.Lexeme, Value: expr, Line: tok.Line}, nil

	default:
		return nil, p.fmtError(tok, "expected statement, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAdditive()
}

func (p *Parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == STAR || p.peek().Type == SLASH {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op.Type, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.peek().Type == MINUS {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: MINUS, Right: right, Line: op.Line}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case NUMBER:
		return &Literal{Value: tok.Value, Line: tok.Line}, nil

	// "vec3" doubles as the constructor name, so a VEC3 keyword followed
	// by "(" is parsed as an ordinary call.
	case IDENTIFIER, VEC3:
		if tok.Type == VEC3 && p.peek().Type != LPAREN {
			return nil, p.fmtError(tok, "expected %q after vec3", "(")
		}
		if p.peek().Type != LPAREN {
			return &VarRef{Name: tok.Lexeme, Line: tok.Line}, nil
		}
		p.advance() // (
		var args []Expr
		for p.peek().Type != RPAREN {
			if len(args) > 0 {
				if _, err := p.expect(COMMA); err != nil {
					return nil, err
				}
			}
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		p.advance() // )
		return &FunctionCall{Name: tok.Lexeme, Args: args, Line: tok.Line}, nil

	case LPAREN:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, p.fmtError(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

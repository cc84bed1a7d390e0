package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	NUMBER     // decimal float literal

	// Keywords
	IN     // "in"
	OUT    // "out"
	RETURN // "return"
	FLOAT  // "float"
	VEC3   // "vec3"
	VOID   // "void"

	// Paired delimiters
	LBRACE // {
	RBRACE // }
	LPAREN // (
	RPAREN // )

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,
	ASSIGN    // =

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
)

var tokenNames = map[TokenType]string{
	EOF:        "EOF",
	IDENTIFIER: "IDENTIFIER",
	NUMBER:     "NUMBER",
	IN:         "in",
	OUT:        "out",
	RETURN:     "return",
	FLOAT:      "float",
	VEC3:       "vec3",
	VOID:       "void",
	LBRACE:     "{",
	RBRACE:     "}",
	LPAREN:     "(",
	RPAREN:     ")",
	SEMICOLON:  ";",
	COMMA:      ",",
	ASSIGN:     "=",
	PLUS:       "+",
	MINUS:      "-",
	STAR:       "*",
	SLASH:      "/",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexical unit with its source position.
type Token struct {
	Type   TokenType
	Lexeme string
	Value  float32 // meaningful for NUMBER tokens
	Line   int     // 1-based source line
}

func (t Token) String() string {
	switch t.Type {
	case IDENTIFIER:
		return fmt.Sprintf("%s(%s) @%d", t.Type, t.Lexeme, t.Line)
	case NUMBER:
		return fmt.Sprintf("%s(%v) @%d", t.Type, t.Value, t.Line)
	default:
		return fmt.Sprintf("%s @%d", t.Type, t.Line)
	}
}

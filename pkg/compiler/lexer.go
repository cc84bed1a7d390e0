package compiler

import (
	"fmt"
	"strconv"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"in":     IN,
	"out":    OUT,
	"return": RETURN,
	"float":  FLOAT,
	"vec3":   VEC3,
	"void":   VOID,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
// The opening "/*" must already have been consumed.
func (l *Lexer) skipBlockComment() error {
	startLine := l.line
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.peek2() == '/' {
			l.advance() // *
			l.advance() // /
			return nil
		}
		l.advance()
	}
	return fmt.Errorf("unterminated block comment (opened on line %d)", startLine)
}

// lexNumber consumes a decimal literal: digits with an optional fractional
// part. All numeric literals in the language are 32-bit floats.
func (l *Lexer) lexNumber() (Token, error) {
	startLine := l.line
	start := l.pos
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
		l.advance() // .
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			l.advance()
		}
	}
	lexeme := string(l.src[start:l.pos])
	v, err := strconv.ParseFloat(lexeme, 32)
	if err != nil {
		return Token{}, fmt.Errorf("invalid number %q on line %d", lexeme, startLine)
	}
	return Token{Type: NUMBER, Lexeme: lexeme, Value: float32(v), Line: startLine}, nil
}

// lexIdentifier consumes an identifier or keyword.
func (l *Lexer) lexIdentifier() Token {
	startLine := l.line
	start := l.pos
	for l.pos < len(l.src) && (unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_') {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	if tt, ok := keywords[lexeme]; ok {
		return Token{Type: tt, Lexeme: lexeme, Line: startLine}
	}
	return Token{Type: IDENTIFIER, Lexeme: lexeme, Line: startLine}
}

// Lex scans src into a flat token slice terminated by an EOF token.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token

	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			break
		}

		r := l.peek()

		if r == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		if r == '/' && l.peek2() == '*' {
			l.advance()
			l.advance()
			if err := l.skipBlockComment(); err != nil {
				return nil, err
			}
			continue
		}

		if unicode.IsDigit(r) {
			tok, err := l.lexNumber()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			continue
		}

		if unicode.IsLetter(r) || r == '_' {
			tokens = append(tokens, l.lexIdentifier())
			continue
		}

		line := l.line
		l.advance()
		var tt TokenType
		switch r {
		case '{':
			tt = LBRACE
		case '}':
			tt = RBRACE
		case '(':
			tt = LPAREN
		case ')':
			tt = RPAREN
		case ';':
			tt = SEMICOLON
		case ',':
			tt = COMMA
		case '=':
			tt = ASSIGN
		case '+':
			tt = PLUS
		case '-':
			tt = MINUS
		case '*':
			tt = STAR
		case '/':
			tt = SLASH
		default:
			return nil, fmt.Errorf("unexpected character %q on line %d", r, line)
		}
		tokens = append(tokens, Token{Type: tt, Lexeme: string(r), Line: line})
	}

	tokens = append(tokens, Token{Type: EOF, Line: l.line})
	return tokens, nil
}

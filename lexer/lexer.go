// Package lexer turns PL/0 source text into a token list. It is a
// hand-written DFA driver: next dispatches on the first rune of
// the next lexeme into one of three sub-automata (alpha-start,
// digit-start, special-start), matching spec.md §4.1.
package lexer

import (
	"github.com/pl0toolchain/pl0c/token"
	"github.com/pl0toolchain/pl0c/toolerr"
)

const (
	maxIdentLen = 11
	maxDigits   = 5
)

// Lexer holds scanning state over a rune slice of the source text.
type Lexer struct {
	chars        []rune
	position     int
	readPosition int
	ch           rune
	line         int
}

// New creates a Lexer positioned at the start of input.
func New(input string) *Lexer {
	l := &Lexer{chars: []rune(input), line: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.chars) {
		l.ch = 0
	} else {
		l.ch = l.chars[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.chars) {
		return 0
	}
	return l.chars[l.readPosition]
}

// Lex tokenizes the entire input, stopping at end-of-source or the
// first lexical error. On error, the tokens collected so far are
// returned along with the error.
func Lex(input string) ([]token.Token, error) {
	if len(input) == 0 {
		return nil, &toolerr.LexError{Kind: toolerr.NoSourceCode, Line: 0}
	}

	l := New(input)
	var tokens []token.Token

	for {
		tok, err := l.next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }
func isAlpha(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
func isAlnum(ch rune) bool { return isAlpha(ch) || isDigit(ch) }

// next scans and returns the next token, skipping whitespace and
// comments first.
func (l *Lexer) next() (token.Token, error) {
	for {
		switch l.ch {
		case ' ':
			l.readChar()
			continue
		case '\n':
			l.line++
			l.readChar()
			continue
		case '/':
			if l.peekChar() == '*' {
				if err := l.skipComment(); err != nil {
					return token.Token{}, err
				}
				continue
			}
		}
		break
	}

	line := l.line

	switch {
	case l.ch == 0:
		return token.Token{Kind: token.EOF, Line: line}, nil
	case isAlpha(l.ch):
		return l.lexAlphaStart(line)
	case isDigit(l.ch):
		return l.lexDigitStart(line)
	default:
		return l.lexSpecialStart(line)
	}
}

// skipComment consumes a /* ... */ comment, including the opening and
// closing delimiters. End-of-source before the closing */ is a
// lexical error.
func (l *Lexer) skipComment() error {
	l.readChar() // consume '/'
	l.readChar() // consume '*'
	for {
		if l.ch == 0 {
			return &toolerr.LexError{Kind: toolerr.UnterminatedComment, Line: l.line}
		}
		if l.ch == '\n' {
			l.line++
		}
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return nil
		}
		l.readChar()
	}
}

// lexAlphaStart consumes the maximal [A-Za-z0-9] run starting with a
// letter and classifies it as a reserved word or identifier.
func (l *Lexer) lexAlphaStart(line int) (token.Token, error) {
	start := l.position
	for isAlnum(l.ch) {
		l.readChar()
	}
	lexeme := string(l.chars[start:l.position])
	if len(lexeme) > maxIdentLen {
		return token.Token{}, &toolerr.LexError{Kind: toolerr.NameTooLong, Line: line}
	}
	kind := token.LookupIdent(lexeme)
	if kind == token.IDENT {
		return token.Token{Kind: token.IDENT, Lexeme: lexeme, Line: line}, nil
	}
	return token.Token{Kind: kind, Line: line}, nil
}

// lexDigitStart consumes the maximal [A-Za-z0-9] run starting with a
// digit. Any letter in that run means a variable was misnamed to
// begin with a digit; otherwise it must be a number of at most 5
// digits.
func (l *Lexer) lexDigitStart(line int) (token.Token, error) {
	start := l.position
	sawAlpha := false
	for isAlnum(l.ch) {
		if isAlpha(l.ch) {
			sawAlpha = true
		}
		l.readChar()
	}
	lexeme := string(l.chars[start:l.position])
	if sawAlpha {
		return token.Token{}, &toolerr.LexError{Kind: toolerr.NonLetterVarInitial, Line: line}
	}
	if len(lexeme) > maxDigits {
		return token.Token{}, &toolerr.LexError{Kind: toolerr.NumberTooLong, Line: line}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Line: line}, nil
}

// lexSpecialStart matches punctuators greedily two-character first.
func (l *Lexer) lexSpecialStart(line int) (token.Token, error) {
	ch := l.ch
	peek := l.peekChar()

	two := func(kind token.Kind) (token.Token, error) {
		l.readChar()
		l.readChar()
		return token.Token{Kind: kind, Line: line}, nil
	}
	one := func(kind token.Kind) (token.Token, error) {
		l.readChar()
		return token.Token{Kind: kind, Line: line}, nil
	}

	switch {
	case ch == ':' && peek == '=':
		return two(token.ASSIGN)
	case ch == '<' && peek == '=':
		return two(token.LEQ)
	case ch == '<' && peek == '>':
		return two(token.NEQ)
	case ch == '>' && peek == '=':
		return two(token.GEQ)
	case ch == '+':
		return one(token.PLUS)
	case ch == '-':
		return one(token.MINUS)
	case ch == '*':
		return one(token.STAR)
	case ch == '/':
		return one(token.SLASH)
	case ch == '(':
		return one(token.LPAREN)
	case ch == ')':
		return one(token.RPAREN)
	case ch == '=':
		return one(token.EQUAL)
	case ch == ',':
		return one(token.COMMA)
	case ch == '.':
		return one(token.PERIOD)
	case ch == ';':
		return one(token.SEMICOLON)
	case ch == '<':
		return one(token.LSS)
	case ch == '>':
		return one(token.GTR)
	case ch == ':':
		// a lone ':' not followed by '=' is a lexical error, not a
		// COLON token — the grammar never accepts a bare colon.
		return token.Token{}, &toolerr.LexError{Kind: toolerr.InvalidSymbol, Line: line}
	default:
		return token.Token{}, &toolerr.LexError{Kind: toolerr.InvalidSymbol, Line: line}
	}
}

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pl0toolchain/pl0c/token"
	"github.com/pl0toolchain/pl0c/toolerr"
)

func kindsOf(toks []token.Token) []token.Kind {
	kinds := make([]token.Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestLexSimpleProgram(t *testing.T) {
	toks, err := Lex("var x; begin x := 5; write x end.")
	require.NoError(t, err)

	assert.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.SEMICOLON,
		token.BEGIN, token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON,
		token.WRITE, token.IDENT, token.END, token.PERIOD, token.EOF,
	}, kindsOf(toks))
}

func TestLexIdentifierAtMaxLength(t *testing.T) {
	// Exactly 11 characters is the limit and must lex as IDENT.
	toks, err := Lex("var abcdefghijk;")
	require.NoError(t, err)
	require.Len(t, toks, 4) // VAR, IDENT, SEMICOLON, EOF
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "abcdefghijk", toks[1].Lexeme)
}

func TestLexIdentifierTooLong(t *testing.T) {
	// 12 characters exceeds the limit.
	_, err := Lex("var abcdefghijkl;")
	require.Error(t, err)
	lexErr, ok := err.(*toolerr.LexError)
	require.True(t, ok)
	assert.Equal(t, toolerr.NameTooLong, lexErr.Kind)
}

func TestLexNumberAtMaxDigits(t *testing.T) {
	toks, err := Lex("var x; begin x := 12345 end.")
	require.NoError(t, err)
	numTok := toks[6]
	assert.Equal(t, token.NUMBER, numTok.Kind)
	assert.Equal(t, "12345", numTok.Lexeme)
}

func TestLexNumberTooLong(t *testing.T) {
	_, err := Lex("var x; begin x := 123456 end.")
	require.Error(t, err)
	lexErr, ok := err.(*toolerr.LexError)
	require.True(t, ok)
	assert.Equal(t, toolerr.NumberTooLong, lexErr.Kind)
}

func TestLexDigitStartWithLetter(t *testing.T) {
	_, err := Lex("var 1x;")
	require.Error(t, err)
	lexErr, ok := err.(*toolerr.LexError)
	require.True(t, ok)
	assert.Equal(t, toolerr.NonLetterVarInitial, lexErr.Kind)
}

func TestLexUnterminatedComment(t *testing.T) {
	_, err := Lex("var x; /* this never closes")
	require.Error(t, err)
	lexErr, ok := err.(*toolerr.LexError)
	require.True(t, ok)
	assert.Equal(t, toolerr.UnterminatedComment, lexErr.Kind)
}

func TestLexCommentIsSkipped(t *testing.T) {
	toks, err := Lex("var x; /* a comment\nspanning lines */ begin x := 1 end.")
	require.NoError(t, err)
	assert.Equal(t, token.BEGIN, toks[3].Kind)
}

func TestLexLoneColonIsInvalid(t *testing.T) {
	_, err := Lex("x : 5")
	require.Error(t, err)
	lexErr, ok := err.(*toolerr.LexError)
	require.True(t, ok)
	assert.Equal(t, toolerr.InvalidSymbol, lexErr.Kind)
}

func TestLexEmptySource(t *testing.T) {
	_, err := Lex("")
	require.Error(t, err)
	lexErr, ok := err.(*toolerr.LexError)
	require.True(t, ok)
	assert.Equal(t, toolerr.NoSourceCode, lexErr.Kind)
}

func TestLexRelationalOperators(t *testing.T) {
	toks, err := Lex("x <= y <> z >= w")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.IDENT, token.LEQ, token.IDENT, token.NEQ,
		token.IDENT, token.GEQ, token.IDENT, token.EOF,
	}, kindsOf(toks))
}

func TestLexLineTracking(t *testing.T) {
	toks, err := Lex("var x;\nbegin\nx := 1\nend.")
	require.NoError(t, err)
	// "end" is on line 3 (0-based).
	var endTok token.Token
	for _, tok := range toks {
		if tok.Kind == token.END {
			endTok = tok
		}
	}
	assert.Equal(t, 3, endTok.Line)
}

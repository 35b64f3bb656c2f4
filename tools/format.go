// Package tools provides developer-facing utilities layered on top of
// the core compiler pipeline — currently a canonical source formatter
// ("unlexer") used both as a CLI convenience and as the concrete
// machinery behind spec.md §8's round-trip law,
// Lex(unlex(tokens)) = tokens.
package tools

import (
	"strings"

	"github.com/pl0toolchain/pl0c/token"
)

// FormatStyle selects how aggressively Format inserts whitespace.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // one statement per line, indented by block nesting
	FormatCompact                     // minimal whitespace, single line where possible
)

// FormatOptions controls Formatter behavior.
type FormatOptions struct {
	Style      FormatStyle
	IndentSize int
}

// DefaultFormatOptions returns the standard one-statement-per-line
// style with two-space indentation.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatDefault, IndentSize: 2}
}

// CompactFormatOptions returns options for minimal-whitespace output.
func CompactFormatOptions() *FormatOptions {
	return &FormatOptions{Style: FormatCompact}
}

// Formatter renders a token stream back into canonical PL/0 source
// text.
type Formatter struct {
	options *FormatOptions
}

// NewFormatter creates a Formatter. A nil options uses
// DefaultFormatOptions.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// noSpaceBefore is the set of token kinds that never get a leading
// space: closing/continuation punctuation that hugs the previous
// token.
var noSpaceBefore = map[token.Kind]bool{
	token.RPAREN:    true,
	token.PERIOD:    true,
	token.SEMICOLON: true,
	token.COMMA:     true,
}

// Format renders tokens as canonical source text. The output is
// whitespace-normalized: re-lexing it reproduces the same token kinds
// and lexemes, regardless of the original source's spacing or
// comments. Line numbers are not preserved, since the layout changes.
func (f *Formatter) Format(tokens []token.Token) string {
	if f.options.Style == FormatCompact {
		return f.formatCompact(tokens)
	}
	return f.formatDefault(tokens)
}

func (f *Formatter) formatCompact(tokens []token.Token) string {
	var sb strings.Builder
	for i, tok := range tokens {
		if tok.Kind == token.EOF {
			break
		}
		if i > 0 && !noSpaceBefore[tok.Kind] {
			sb.WriteByte(' ')
		}
		sb.WriteString(tokenText(tok))
	}
	return sb.String()
}

// formatDefault lays out one statement-separating token (";", "begin",
// "end") per line, indenting by block nesting depth.
func (f *Formatter) formatDefault(tokens []token.Token) string {
	var sb strings.Builder
	depth := 0
	atLineStart := true

	indent := func() {
		sb.WriteString(strings.Repeat(" ", depth*f.options.IndentSize))
	}

	for i, tok := range tokens {
		if tok.Kind == token.EOF {
			break
		}

		if tok.Kind == token.END {
			depth--
			if depth < 0 {
				depth = 0
			}
			if !atLineStart {
				sb.WriteByte('\n')
				atLineStart = true
			}
		}

		if atLineStart {
			indent()
			atLineStart = false
		} else if !noSpaceBefore[tok.Kind] {
			sb.WriteByte(' ')
		}
		sb.WriteString(tokenText(tok))
		_ = i

		switch tok.Kind {
		case token.SEMICOLON, token.BEGIN:
			sb.WriteByte('\n')
			atLineStart = true
		}
		if tok.Kind == token.BEGIN {
			depth++
		}
	}

	return sb.String()
}

// tokenText renders the canonical spelling of a single token:
// reserved words and punctuators by their fixed text, identifiers and
// numbers by their lexeme.
func tokenText(tok token.Token) string {
	switch tok.Kind {
	case token.IDENT, token.NUMBER:
		return tok.Lexeme
	default:
		return tok.Kind.String()
	}
}

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	cases := []struct {
		name string
		want Kind
	}{
		{"const", CONST},
		{"procedure", PROCEDURE},
		{"odd", ODD},
		{"write", WRITE},
		{"x", IDENT},
		{"Total", IDENT},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LookupIdent(tc.name), tc.name)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "procedure", PROCEDURE.String())
	assert.Equal(t, ":=", ASSIGN.String())
	assert.Equal(t, "UNKNOWN", Kind(9999).String())
}

func TestIsRelational(t *testing.T) {
	relational := []Kind{EQUAL, NEQ, LSS, LEQ, GTR, GEQ}
	for _, k := range relational {
		tok := Token{Kind: k}
		assert.True(t, tok.IsRelational(), k.String())
	}

	nonRelational := []Kind{PLUS, ASSIGN, IDENT, NUMBER}
	for _, k := range nonRelational {
		tok := Token{Kind: k}
		assert.False(t, tok.IsRelational(), k.String())
	}
}

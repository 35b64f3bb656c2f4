package toolerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLexErrorMessage(t *testing.T) {
	err := &LexError{Kind: NameTooLong, Line: 3}
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "11 characters")
}

func TestParseErrorMessage(t *testing.T) {
	err := NewParseError(7, 2)
	assert.Contains(t, err.Error(), "error 7")
	assert.Contains(t, err.Error(), ":=")
}

func TestParseErrorExtendedCodes(t *testing.T) {
	err := NewParseError(98, 1)
	assert.Contains(t, err.Error(), "undeclared identifier")

	err = NewParseError(99, 1)
	assert.Contains(t, err.Error(), "MAX_CODE")
}

func TestRuntimeFaultMessage(t *testing.T) {
	err := &RuntimeFault{Kind: DivisionByZero, Address: 10}
	assert.Contains(t, err.Error(), "fault at 10")
	assert.Contains(t, err.Error(), "zero")
}

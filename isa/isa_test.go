package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpString(t *testing.T) {
	assert.Equal(t, "LIT", LIT.String())
	assert.Equal(t, "SIO_WRITE", SIOWrite.String())
	assert.Equal(t, "ILLEGAL", Op(0).String())
	assert.Equal(t, "ILLEGAL", Op(200).String())
}

func TestInstructionZeroValueIsIllegal(t *testing.T) {
	var instr Instruction
	assert.Equal(t, "ILLEGAL", instr.Op.String())
}

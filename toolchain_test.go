package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pl0toolchain/pl0c/compiler"
	"github.com/pl0toolchain/pl0c/lexer"
	"github.com/pl0toolchain/pl0c/vm"
)

// compileAndRun drives the full lexer -> compiler -> vm pipeline over
// src, feeding vmIn to SIO_READ and returning everything SIO_WRITE
// produced on VM-out.
func compileAndRun(t *testing.T, src, vmIn string) string {
	t.Helper()

	toks, err := lexer.Lex(src)
	require.NoError(t, err)

	code, _, err := compiler.New(toks, 500).Compile()
	require.NoError(t, err)

	var out bytes.Buffer
	m := vm.New(code, 2000, strings.NewReader(vmIn), &out)
	require.NoError(t, m.Run())

	return out.String()
}

func TestScenarioAssignAndWrite(t *testing.T) {
	out := compileAndRun(t, "var x; begin x := 5; write x end.", "")
	assert.Equal(t, "5", out)
}

func TestScenarioConstArithmetic(t *testing.T) {
	out := compileAndRun(t, "const k = 7; var x; begin x := k + 3; write x end.", "")
	assert.Equal(t, "10", out)
}

func TestScenarioReadWriteRoundTrip(t *testing.T) {
	out := compileAndRun(t, "var x; begin read x; write x end.", "42")
	assert.Equal(t, "42", out)
}

func TestScenarioWhileLoop(t *testing.T) {
	src := "var i; begin i := 0; while i < 3 do begin write i; i := i + 1 end end."
	out := compileAndRun(t, src, "")
	assert.Equal(t, "012", out)
}

func TestScenarioIfOddThenBranch(t *testing.T) {
	src := "var x; begin x := 11; if odd x then write x else write 0 end."
	out := compileAndRun(t, src, "")
	assert.Equal(t, "11", out)
}

func TestScenarioIfOddElseBranch(t *testing.T) {
	src := "var x; begin x := 10; if odd x then write x else write 0 end."
	out := compileAndRun(t, src, "")
	assert.Equal(t, "0", out)
}

func TestScenarioProcedureCall(t *testing.T) {
	src := "procedure p; var y; begin y := 1; write y end; begin call p end."
	out := compileAndRun(t, src, "")
	assert.Equal(t, "1", out)
}

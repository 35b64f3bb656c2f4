package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pl0toolchain/pl0c/isa"
	"github.com/pl0toolchain/pl0c/vm"
)

func TestCodeListing(t *testing.T) {
	code := []isa.Instruction{
		{Op: isa.LIT, R: 0, M: 5},
		{Op: isa.SIOWrite, R: 0},
		{Op: isa.SIOHalt},
	}
	listing := CodeListing(code)
	assert.Contains(t, listing, "LIT")
	assert.Contains(t, listing, "SIO_WRITE")
	assert.Contains(t, listing, "SIO_HALT")
	assert.Equal(t, 3, strings.Count(listing, "\n"))
}

func TestWriteCodeListing(t *testing.T) {
	code := []isa.Instruction{{Op: isa.SIOHalt}}
	var buf bytes.Buffer
	require.NoError(t, WriteCodeListing(&buf, code))
	assert.Contains(t, buf.String(), "SIO_HALT")
}

func TestExecutionTraceRecordsSteps(t *testing.T) {
	code := []isa.Instruction{
		{Op: isa.INC, M: 4},
		{Op: isa.LIT, R: 0, M: 9},
		{Op: isa.SIOWrite, R: 0},
		{Op: isa.SIOHalt},
	}
	var vmOut bytes.Buffer
	m := vm.New(code, 32, strings.NewReader(""), &vmOut)

	var traceOut bytes.Buffer
	tr := New(&traceOut)

	err := m.RunTraced(func(addr int, instr isa.Instruction) {
		tr.Record(m, addr, instr)
	})
	require.NoError(t, err)

	lines := strings.Count(traceOut.String(), "\n")
	assert.Equal(t, len(code), lines)
	assert.Contains(t, traceOut.String(), "LIT")
}

func TestExecutionTraceDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)
	tr.Enabled = false

	m := vm.New([]isa.Instruction{{Op: isa.SIOHalt}}, 8, strings.NewReader(""), &bytes.Buffer{})
	tr.Record(m, 0, isa.Instruction{Op: isa.SIOHalt})
	assert.Empty(t, buf.String())
}

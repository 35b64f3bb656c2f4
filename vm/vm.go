// Package vm implements the stack-frame virtual machine: a register
// file, an activation-record stack addressed through a static-link
// chain, and a fetch-decode-execute loop over the 24 opcodes of
// spec.md §4.4.
package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/pl0toolchain/pl0c/isa"
	"github.com/pl0toolchain/pl0c/toolerr"
)

// State represents the current state of the VM's fetch-execute loop.
type State int

const (
	StateReady State = iota
	StateRunning
	StateHalted
	StateFaulted
)

// VM holds all machine state described in spec.md §3: the register
// file, the activation-record stack, and the PC/BP/SP triple.
type VM struct {
	RF [16]int32

	Stack []int32
	PC    int
	BP    int
	SP    int

	Code []isa.Instruction

	State State
	Fault *toolerr.RuntimeFault

	// I/O redirection: VM-in produces decimal integers for SIO_READ,
	// VM-out consumes decimal integers (without separators) written
	// by SIO_WRITE.
	in  *bufio.Reader
	Out io.Writer

	// Steps counts executed instructions, for tests and diagnostics.
	Steps uint64
}

// New creates a VM over code with a stack of maxStack cells, reading
// VM-in from in and writing VM-out to out. A nil in/out defaults to
// os.Stdin/os.Stdout.
func New(code []isa.Instruction, maxStack int, in io.Reader, out io.Writer) *VM {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &VM{
		Stack: make([]int32, maxStack),
		BP:    1,
		SP:    0,
		Code:  code,
		State: StateReady,
		in:    bufio.NewReader(in),
		Out:   out,
	}
}

// Reset returns the VM to its initial state (spec.md §3: all
// registers and stack cells zero, PC=0, BP=1, SP=0), keeping the
// loaded code and I/O streams.
func (m *VM) Reset() {
	m.RF = [16]int32{}
	for i := range m.Stack {
		m.Stack[i] = 0
	}
	m.PC = 0
	m.BP = 1
	m.SP = 0
	m.State = StateReady
	m.Fault = nil
	m.Steps = 0
}

// base walks the static-link chain l levels out from the current BP,
// returning the base of the lexically enclosing frame. Used by LOD,
// STO and CAL to resolve non-local variable and procedure addresses.
func (m *VM) base(l int) int {
	b := m.BP
	for i := 0; i < l; i++ {
		b = int(m.Stack[b+1])
	}
	return b
}

func (m *VM) stackRead(addr int) (int32, bool) {
	if addr < 0 || addr >= len(m.Stack) {
		return 0, false
	}
	return m.Stack[addr], true
}

func (m *VM) stackWrite(addr int, v int32) bool {
	if addr < 0 || addr >= len(m.Stack) {
		return false
	}
	m.Stack[addr] = v
	return true
}

package vm

import (
	"fmt"

	"github.com/pl0toolchain/pl0c/isa"
	"github.com/pl0toolchain/pl0c/toolerr"
)

// Run executes instructions until HALT, an illegal opcode, or a
// runtime fault. It returns the fault as an error, or nil on a clean
// HALT.
func (m *VM) Run() error {
	m.State = StateRunning
	for m.State == StateRunning {
		if _, _, err := m.Step(); err != nil {
			return err
		}
	}
	if m.State == StateFaulted {
		return m.Fault
	}
	return nil
}

// RunTraced executes instructions exactly like Run, additionally
// invoking record after every successfully executed instruction with
// the address and instruction just executed. record is typically
// (*trace.ExecutionTrace).Record, kept generic here so this package
// does not need to import trace.
func (m *VM) RunTraced(record func(addr int, instr isa.Instruction)) error {
	m.State = StateRunning
	for m.State == StateRunning {
		addr, instr, err := m.Step()
		if err != nil {
			return err
		}
		if record != nil {
			record(addr, instr)
		}
	}
	if m.State == StateFaulted {
		return m.Fault
	}
	return nil
}

// Step fetches and executes a single instruction, returning its
// address and the instruction itself alongside any error.
func (m *VM) Step() (int, isa.Instruction, error) {
	if m.PC < 0 || m.PC >= len(m.Code) {
		return m.PC, isa.Instruction{}, m.fault(toolerr.PCOutOfRange)
	}

	instr := m.Code[m.PC]
	addr := m.PC
	m.PC++
	m.Steps++

	switch instr.Op {
	case isa.LIT:
		m.RF[instr.R] = int32(instr.M)

	case isa.RTN:
		m.SP = m.BP - 1
		bp, ok := m.stackRead(m.SP + 3)
		if !ok {
			return addr, isa.Instruction{}, m.faultAt(toolerr.StackUnderflow, addr)
		}
		pc, ok := m.stackRead(m.SP + 4)
		if !ok {
			return addr, isa.Instruction{}, m.faultAt(toolerr.StackUnderflow, addr)
		}
		m.BP = int(bp)
		m.PC = int(pc)

	case isa.LOD:
		v, ok := m.stackRead(m.base(instr.L) + instr.M)
		if !ok {
			return addr, isa.Instruction{}, m.faultAt(toolerr.StackOverflow, addr)
		}
		m.RF[instr.R] = v

	case isa.STO:
		if !m.stackWrite(m.base(instr.L)+instr.M, m.RF[instr.R]) {
			return addr, isa.Instruction{}, m.faultAt(toolerr.StackOverflow, addr)
		}

	case isa.CAL:
		base := m.base(instr.L)
		if !m.stackWrite(m.SP+1, 0) ||
			!m.stackWrite(m.SP+2, int32(base)) ||
			!m.stackWrite(m.SP+3, int32(m.BP)) ||
			!m.stackWrite(m.SP+4, int32(m.PC)) {
			return addr, isa.Instruction{}, m.faultAt(toolerr.StackOverflow, addr)
		}
		m.BP = m.SP + 1
		m.PC = instr.M

	case isa.INC:
		m.SP += instr.M
		if m.SP >= len(m.Stack) {
			return addr, isa.Instruction{}, m.faultAt(toolerr.StackOverflow, addr)
		}

	case isa.JMP:
		m.PC = instr.M

	case isa.JPC:
		if m.RF[instr.R] == 0 {
			m.PC = instr.M
		}

	case isa.SIOWrite:
		fmt.Fprintf(m.Out, "%d", m.RF[instr.R])

	case isa.SIORead:
		v, err := m.readDecimal()
		if err != nil {
			return addr, isa.Instruction{}, m.faultAt(toolerr.IllegalOpcode, addr)
		}
		m.RF[instr.R] = v

	case isa.SIOHalt:
		m.State = StateHalted

	case isa.NEG:
		m.RF[instr.R] = -m.RF[instr.L]

	case isa.ADD:
		m.RF[instr.R] = m.RF[instr.L] + m.RF[instr.M]

	case isa.SUB:
		m.RF[instr.R] = m.RF[instr.L] - m.RF[instr.M]

	case isa.MUL:
		m.RF[instr.R] = m.RF[instr.L] * m.RF[instr.M]

	case isa.DIV:
		if m.RF[instr.M] == 0 {
			return addr, isa.Instruction{}, m.faultAt(toolerr.DivisionByZero, addr)
		}
		m.RF[instr.R] = m.RF[instr.L] / m.RF[instr.M]

	case isa.ODD:
		m.RF[instr.R] = m.RF[instr.R] % 2

	case isa.MOD:
		if m.RF[instr.M] == 0 {
			return addr, isa.Instruction{}, m.faultAt(toolerr.DivisionByZero, addr)
		}
		m.RF[instr.R] = m.RF[instr.L] % m.RF[instr.M]

	case isa.EQL:
		m.RF[instr.R] = boolToInt32(m.RF[instr.L] == m.RF[instr.M])
	case isa.NEQ:
		m.RF[instr.R] = boolToInt32(m.RF[instr.L] != m.RF[instr.M])
	case isa.LSS:
		m.RF[instr.R] = boolToInt32(m.RF[instr.L] < m.RF[instr.M])
	case isa.LEQ:
		m.RF[instr.R] = boolToInt32(m.RF[instr.L] <= m.RF[instr.M])
	case isa.GTR:
		m.RF[instr.R] = boolToInt32(m.RF[instr.L] > m.RF[instr.M])
	case isa.GEQ:
		m.RF[instr.R] = boolToInt32(m.RF[instr.L] >= m.RF[instr.M])

	default:
		return addr, isa.Instruction{}, m.faultAt(toolerr.IllegalOpcode, addr)
	}

	return addr, instr, nil
}

func (m *VM) fault(kind toolerr.FaultKind) error {
	return m.faultAt(kind, m.PC)
}

func (m *VM) faultAt(kind toolerr.FaultKind, addr int) error {
	m.State = StateFaulted
	m.Fault = &toolerr.RuntimeFault{Kind: kind, Address: addr}
	return m.Fault
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// readDecimal reads one decimal integer (optional leading '-') from
// VM-in, skipping any leading whitespace/newlines. End-of-input with
// no digits read yields 0, nil rather than a fault: spec.md's failure
// model lists division-by-zero, stack over/underflow, PC-out-of-range
// and illegal opcode as the fatal conditions, and leaves VM-in
// exhaustion unspecified.
func (m *VM) readDecimal() (int32, error) {
	var b byte
	var err error

	for {
		b, err = m.in.ReadByte()
		if err != nil {
			return 0, nil
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		break
	}

	neg := false
	if b == '-' {
		neg = true
		b, err = m.in.ReadByte()
		if err != nil {
			return 0, nil
		}
	}

	value := int32(0)
	for b >= '0' && b <= '9' {
		value = value*10 + int32(b-'0')
		b, err = m.in.ReadByte()
		if err != nil {
			break
		}
	}
	if err == nil {
		_ = m.in.UnreadByte()
	}

	if neg {
		value = -value
	}
	return value, nil
}

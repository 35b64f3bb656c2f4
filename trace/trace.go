// Package trace implements the two textual trace sinks spec.md §4.5
// calls for: a static code listing and a per-step execution trace
// that shows the stack grouped into activation records. Both are
// thin, write-only collaborators — they observe vm.VM, they never
// drive it.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/pl0toolchain/pl0c/isa"
	"github.com/pl0toolchain/pl0c/vm"
)

// CodeListing renders one line per instruction as
// "index mnemonic r l m".
func CodeListing(code []isa.Instruction) string {
	var sb strings.Builder
	for i, instr := range code {
		fmt.Fprintf(&sb, "%4d  %-9s %2d %2d %5d\n", i, instr.Op, instr.R, instr.L, instr.M)
	}
	return sb.String()
}

// WriteCodeListing writes CodeListing(code) to w.
func WriteCodeListing(w io.Writer, code []isa.Instruction) error {
	_, err := io.WriteString(w, CodeListing(code))
	return err
}

// ExecutionTrace accumulates one line per executed step:
// (index, mnemonic, r, l, m, PC, BP, SP, stack-snapshot). The
// snapshot groups live stack cells by activation record, oldest frame
// first, separated by "|".
type ExecutionTrace struct {
	Writer  io.Writer
	Enabled bool
}

// New creates an ExecutionTrace writing to w.
func New(w io.Writer) *ExecutionTrace {
	return &ExecutionTrace{Writer: w, Enabled: true}
}

// Record writes one trace line for the instruction just executed at
// addr, observing m's state *after* execution.
func (t *ExecutionTrace) Record(m *vm.VM, addr int, instr isa.Instruction) {
	if !t.Enabled || t.Writer == nil {
		return
	}
	fmt.Fprintf(t.Writer, "%4d  %-9s %2d %2d %5d  | PC=%-4d BP=%-4d SP=%-4d | %s\n",
		addr, instr.Op, instr.R, instr.L, instr.M, m.PC, m.BP, m.SP, frameSnapshot(m))
}

// frameSnapshot walks the dynamic-link chain from the current frame
// back to the outermost one, collecting frame bases top-down
// (iteratively, not recursively — the chain is walked once into a
// slice and then rendered, rather than unwound on the call stack: see
// the trace entry in DESIGN.md) and renders each
// frame's live cells as a space-separated group, oldest frame first.
func frameSnapshot(m *vm.VM) string {
	if m.BP <= 0 || m.BP >= len(m.Stack) {
		return ""
	}

	var bases []int
	b := m.BP
	for {
		bases = append(bases, b)
		if b <= 1 {
			break
		}
		link, ok := safeRead(m.Stack, b+2)
		if !ok || int(link) <= 0 || int(link) >= b {
			break
		}
		b = int(link)
	}
	// bases is innermost-first; reverse to render outermost first.
	for i, j := 0, len(bases)-1; i < j; i, j = i+1, j-1 {
		bases[i], bases[j] = bases[j], bases[i]
	}

	var groups []string
	for i, base := range bases {
		end := m.SP
		if i < len(bases)-1 {
			end = bases[i+1] - 1
		}
		groups = append(groups, renderFrame(m.Stack, base, end))
	}
	return strings.Join(groups, " | ")
}

func renderFrame(stack []int32, base, end int) string {
	var cells []string
	for addr := base; addr <= end && addr < len(stack); addr++ {
		cells = append(cells, fmt.Sprintf("%d", stack[addr]))
	}
	return strings.Join(cells, " ")
}

func safeRead(stack []int32, addr int) (int32, bool) {
	if addr < 0 || addr >= len(stack) {
		return 0, false
	}
	return stack[addr], true
}

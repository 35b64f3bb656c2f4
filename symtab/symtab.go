// Package symtab implements the compiler's symbol table: an ordered
// sequence of declarations searched back-to-front so that shadowing at
// nested lexical levels resolves correctly.
package symtab

import "fmt"

// Kind identifies what a Symbol denotes.
type Kind int

const (
	CONST Kind = iota
	VAR
	PROC
)

func (k Kind) String() string {
	switch k {
	case CONST:
		return "CONST"
	case VAR:
		return "VAR"
	case PROC:
		return "PROC"
	default:
		return "?"
	}
}

// Symbol is a single declaration: a name bound at a lexical level to
// either a constant value, a frame-slot address (VAR) or a code-index
// entry point (PROC). Address and Value are both set at declaration
// time and are never rewritten afterward.
//
// Level records the lexical nesting depth, used to compute the
// static-link hop count (δL) for LOD/STO/CAL. Scope records which
// specific block opened the declaration, used by Find to tell two
// sibling scopes at the same Level apart — Level alone cannot
// distinguish "the enclosing scope" from "a sibling scope that
// happens to sit at the same depth."
type Symbol struct {
	Name    string
	Kind    Kind
	Level   int
	Scope   int
	Value   int // CONST: the literal value
	Address int // VAR: frame offset. PROC: code index of entry point.
}

// Table is an append-only, declaration-ordered list of symbols.
type Table struct {
	symbols []Symbol
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{symbols: make([]Symbol, 0, 32)}
}

// Add appends sym to the table. Callers are responsible for having
// filled in Name, Kind, Level, Scope and the kind-appropriate payload;
// the table does not invent addresses or values.
func (t *Table) Add(sym Symbol) {
	t.symbols = append(t.symbols, sym)
}

// Find returns the most recently declared symbol named name that is
// visible from scope, under the scope tree described by parent (where
// parent[s] is the enclosing scope of s, and parent[0] == -1 for the
// root). A symbol is visible only if its own declaring Scope lies on
// the chain from scope up to the root — that is, scope is the
// declaring block itself or is lexically nested inside it. This is
// strictly narrower than comparing Level alone: two sibling
// procedures share the same Level but sit in different, mutually
// invisible scopes, so a variable declared in one is never visible
// from the other even though neither Level nor declaration order rules
// it out on its own.
//
// Scanning back-to-front means a later (more deeply nested, or more
// recently declared in the same scope) declaration shadows an earlier
// one.
func (t *Table) Find(parent []int, scope int, name string) (Symbol, bool) {
	for i := len(t.symbols) - 1; i >= 0; i-- {
		s := t.symbols[i]
		if s.Name == name && inScopeChain(parent, scope, s.Scope) {
			return s, true
		}
	}
	return Symbol{}, false
}

// inScopeChain reports whether target is scope itself or one of its
// ancestors per parent.
func inScopeChain(parent []int, scope, target int) bool {
	for scope != -1 {
		if scope == target {
			return true
		}
		scope = parent[scope]
	}
	return false
}

// All returns the symbols in declaration order, for dump/debug output.
func (t *Table) All() []Symbol {
	return t.symbols
}

// Dump renders one line per symbol: name, kind, level, address|value.
func (t *Table) Dump() string {
	var out string
	for i, s := range t.symbols {
		payload := s.Address
		if s.Kind == CONST {
			payload = s.Value
		}
		out += fmt.Sprintf("%3d  %-11s %-5s level=%d %d\n", i, s.Name, s.Kind, s.Level, payload)
	}
	return out
}

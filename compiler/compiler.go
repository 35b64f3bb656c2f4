// Package compiler fuses the parser and code generator into a single
// single-pass recursive-descent walk: one method per grammar
// nonterminal, each both recognizing its production and emitting the
// instructions for it. This is the pipeline stage spec.md calls out
// as carrying the most engineering weight — lexical-level activation
// record layout, static links across nested procedures, jump
// patching, and register-stack allocation all live here.
package compiler

import (
	"github.com/pl0toolchain/pl0c/isa"
	"github.com/pl0toolchain/pl0c/symtab"
	"github.com/pl0toolchain/pl0c/token"
	"github.com/pl0toolchain/pl0c/toolerr"
)

// frameHeaderSize is the number of reserved activation-record slots
// (return value, static link, dynamic link, return address) before
// the first local variable.
const frameHeaderSize = 4

// codeMemoryExhausted is not one of the frozen error codes in
// spec.md §7.2 — it reports the MAX_CODE capacity overrun spec.md §3
// requires the emitter to respect, using the same ParseError carrier.
const codeMemoryExhausted = 99

// undeclaredIdentifier, likewise, extends spec.md §7.2: none of its
// 17 frozen codes covers "this name was never declared".
const undeclaredIdentifier = 98

// Compiler holds all compile-time state threaded through the
// recursive-descent walk: the token stream and cursor, the symbol
// table, the code buffer, the current lexical level, and the
// register-stack allocation counter. A Compiler is used once, for a
// single compilation.
type Compiler struct {
	toks []token.Token
	pos  int
	cur  token.Token

	syms  *symtab.Table
	code  []isa.Instruction
	level int

	// scope identifies the block currently being compiled, distinct
	// from level: level is a nesting depth (shared by sibling
	// procedures), scope is a unique id per block, used to tell
	// siblings at the same depth apart. scopeParent[s] is the
	// enclosing scope of s; scopeParent[0] == -1. scope 0 is the
	// top-level program block.
	scope       int
	scopeParent []int

	// curReg is the next free register in [0,15]. Leaf emissions
	// (LIT, LOD) write RF[curReg] and increment it; binary ops
	// combine RF[curReg-2] and RF[curReg-1] into RF[curReg-2] and
	// decrement. A well-formed expression leaves its result at the
	// pre-call curReg and increments by exactly one.
	curReg int

	maxCode  int
	overflow bool
}

// New creates a Compiler over an already-lexed token stream. maxCode
// bounds the number of instructions that may be emitted.
func New(toks []token.Token, maxCode int) *Compiler {
	c := &Compiler{
		toks:        toks,
		syms:        symtab.New(),
		maxCode:     maxCode,
		scopeParent: []int{-1},
	}
	if len(toks) > 0 {
		c.cur = toks[0]
	}
	return c
}

// find looks up name as visible from the compiler's current scope.
func (c *Compiler) find(name string) (symtab.Symbol, bool) {
	return c.syms.Find(c.scopeParent, c.scope, name)
}

// openScope allocates a new child scope of the current scope and
// switches to it, returning a function that restores the previous
// scope. Used for the duration of a procedure body.
func (c *Compiler) openScope() func() {
	parent := c.scope
	child := len(c.scopeParent)
	c.scopeParent = append(c.scopeParent, parent)
	c.scope = child
	return func() { c.scope = parent }
}

// Compile runs the parser/code-generator over the whole program and
// returns the emitted instructions and the final symbol table, or the
// first error encountered.
func (c *Compiler) Compile() ([]isa.Instruction, *symtab.Table, error) {
	if err := c.program(); err != nil {
		return nil, nil, err
	}
	if c.overflow {
		return nil, nil, toolerr.NewParseError(codeMemoryExhausted, c.cur.Line)
	}
	return c.code, c.syms, nil
}

// --- token cursor -----------------------------------------------------

func (c *Compiler) advance() {
	c.pos++
	if c.pos < len(c.toks) {
		c.cur = c.toks[c.pos]
	} else {
		c.cur = token.Token{Kind: token.EOF, Line: c.cur.Line}
	}
}

func (c *Compiler) expect(kind token.Kind, code int) error {
	if c.cur.Kind != kind {
		return toolerr.NewParseError(code, c.cur.Line)
	}
	c.advance()
	return nil
}

// --- code buffer -------------------------------------------------------

// emit appends an instruction and returns the address it was placed
// at, for later patching of a forward jump. Once maxCode is reached it
// stops appending and returns -1 instead of a real address, so a
// patch of an instruction that was never emitted is a harmless no-op
// rather than an out-of-bounds write.
func (c *Compiler) emit(op isa.Op, r, l, m int) int {
	if c.maxCode > 0 && len(c.code) >= c.maxCode {
		c.overflow = true
		return -1
	}
	addr := len(c.code)
	c.code = append(c.code, isa.Instruction{Op: op, R: r, L: l, M: m})
	return addr
}

// patch rewrites the m operand of a previously emitted instruction —
// the fixup for a forward jump whose target wasn't known at emit
// time. addr == -1 means the instruction overflowed MAX_CODE and was
// never emitted; patching it is a no-op, leaving the overflow flag to
// surface as ParseError(99) once compilation finishes.
func (c *Compiler) patch(addr, m int) {
	if addr < 0 {
		return
	}
	c.code[addr].M = m
}

func delta(currentLevel, symLevel int) int {
	d := currentLevel - symLevel
	if d < 0 {
		d = 0
	}
	return d
}

// --- grammar -----------------------------------------------------------

// program = block "." .
func (c *Compiler) program() error {
	if err := c.block(false); err != nil {
		return err
	}
	if err := c.expect(token.PERIOD, 6); err != nil {
		return err
	}
	c.emit(isa.SIOHalt, 0, 0, 3)
	return nil
}

// block = [const_decl] [var_decl] {proc_decl} statement .
//
// isProcBody is not consulted here: procDecl emits the trailing RTN
// after a procedure body itself, and program terminates the top-level
// block with SIO_HALT.
func (c *Compiler) block(isProcBody bool) error {
	_ = isProcBody // trailer is emitted by the caller, not here

	if c.cur.Kind == token.CONST {
		if err := c.constDecl(); err != nil {
			return err
		}
	}

	varCount := 0
	if c.cur.Kind == token.VAR {
		n, err := c.varDecl()
		if err != nil {
			return err
		}
		varCount = n
	}

	// Single INC sizing the whole frame (header + locals), replacing
	// both the per-variable INC and proc_decl's separate header-only
	// INC from the un-reworked design.
	c.emit(isa.INC, 0, 0, frameHeaderSize+varCount)

	for c.cur.Kind == token.PROCEDURE {
		if err := c.procDecl(); err != nil {
			return err
		}
	}

	return c.statement()
}

// const_decl = "const" ident "=" number {"," ident "=" number} ";" .
func (c *Compiler) constDecl() error {
	c.advance() // consume "const"

	for {
		if c.cur.Kind != token.IDENT {
			return toolerr.NewParseError(3, c.cur.Line)
		}
		name := c.cur.Lexeme
		c.advance()

		if err := c.expect(token.EQUAL, 2); err != nil {
			return err
		}

		if c.cur.Kind != token.NUMBER {
			return toolerr.NewParseError(1, c.cur.Line)
		}
		value := atoi(c.cur.Lexeme)
		c.advance()

		c.syms.Add(symtab.Symbol{Name: name, Kind: symtab.CONST, Level: c.level, Scope: c.scope, Value: value})

		if c.cur.Kind == token.COMMA {
			c.advance()
			continue
		}
		break
	}

	return c.expect(token.SEMICOLON, 5)
}

// var_decl = "var" ident {"," ident} ";" .
// Returns the number of variables declared, for frame sizing.
func (c *Compiler) varDecl() (int, error) {
	c.advance() // consume "var"

	count := 0
	for {
		if c.cur.Kind != token.IDENT {
			return 0, toolerr.NewParseError(3, c.cur.Line)
		}
		name := c.cur.Lexeme
		c.advance()

		addr := frameHeaderSize + count
		c.syms.Add(symtab.Symbol{Name: name, Kind: symtab.VAR, Level: c.level, Scope: c.scope, Address: addr})
		count++

		if c.cur.Kind == token.COMMA {
			c.advance()
			continue
		}
		break
	}

	if err := c.expect(token.SEMICOLON, 4); err != nil {
		return 0, err
	}
	return count, nil
}

// proc_decl = "procedure" ident ";" block ";" .
func (c *Compiler) procDecl() error {
	c.advance() // consume "procedure"

	if c.cur.Kind != token.IDENT {
		return toolerr.NewParseError(3, c.cur.Line)
	}
	name := c.cur.Lexeme
	c.advance()

	if err := c.expect(token.SEMICOLON, 5); err != nil {
		return err
	}

	jmpAddr := c.emit(isa.JMP, 0, 0, 0) // patched below, past the body
	entry := len(c.code)
	// The procedure's own name is declared in the enclosing scope
	// (this is what lets it call itself, and lets siblings declared
	// after it call it), not in the new scope opened for its body
	// below. A sibling declared later is not yet visible here.
	c.syms.Add(symtab.Symbol{Name: name, Kind: symtab.PROC, Level: c.level, Scope: c.scope, Address: entry})

	closeScope := c.openScope()
	c.level++
	if err := c.block(true); err != nil {
		closeScope()
		return err
	}
	c.emit(isa.RTN, 0, 0, 0)
	c.level--
	closeScope()

	c.patch(jmpAddr, len(c.code))

	return c.expect(token.SEMICOLON, 5)
}

// statement = [ ident ":=" expression
//
//	| "call" ident
//	| "begin" statement {";" statement} "end"
//	| "if" condition "then" statement ["else" statement]
//	| "while" condition "do" statement
//	| "read" ident
//	| "write" expression ] .
func (c *Compiler) statement() error {
	switch c.cur.Kind {
	case token.IDENT:
		return c.assignStatement()
	case token.CALL:
		return c.callStatement()
	case token.BEGIN:
		return c.beginStatement()
	case token.IF:
		return c.ifStatement()
	case token.WHILE:
		return c.whileStatement()
	case token.READ:
		return c.readStatement()
	case token.WRITE:
		return c.writeStatement()
	default:
		// empty statement: the grammar's outer brackets make a
		// statement optional wherever it is invoked.
		return nil
	}
}

func (c *Compiler) assignStatement() error {
	name := c.cur.Lexeme
	line := c.cur.Line
	c.advance()

	sym, ok := c.find(name)
	if !ok {
		return toolerr.NewParseError(undeclaredIdentifier, line)
	}
	if sym.Kind != symtab.VAR {
		return toolerr.NewParseError(16, line)
	}

	if err := c.expect(token.ASSIGN, 7); err != nil {
		return err
	}

	start := c.curReg
	if err := c.expression(); err != nil {
		return err
	}
	c.emit(isa.STO, start, delta(c.level, sym.Level), sym.Address)
	c.curReg = start

	return nil
}

func (c *Compiler) callStatement() error {
	c.advance() // consume "call"
	if c.cur.Kind != token.IDENT {
		return toolerr.NewParseError(8, c.cur.Line)
	}
	name := c.cur.Lexeme
	line := c.cur.Line
	c.advance()

	sym, ok := c.find(name)
	if !ok || sym.Kind != symtab.PROC {
		return toolerr.NewParseError(17, line)
	}

	c.emit(isa.CAL, 0, delta(c.level, sym.Level), sym.Address)
	return nil
}

func (c *Compiler) beginStatement() error {
	c.advance() // consume "begin"

	if err := c.statement(); err != nil {
		return err
	}
	for c.cur.Kind == token.SEMICOLON {
		c.advance()
		if err := c.statement(); err != nil {
			return err
		}
	}

	return c.expect(token.END, 10)
}

func (c *Compiler) ifStatement() error {
	c.advance() // consume "if"
	if err := c.condition(); err != nil {
		return err
	}
	flagReg := c.curReg - 1

	if err := c.expect(token.THEN, 9); err != nil {
		return err
	}

	jpcAddr := c.emit(isa.JPC, flagReg, 0, 0)
	c.curReg--

	if err := c.statement(); err != nil {
		return err
	}

	if c.cur.Kind == token.ELSE {
		// With an else branch the JPC must skip to the else arm, and
		// the then arm must itself jump past the else arm.
		jmpAddr := c.emit(isa.JMP, 0, 0, 0)
		c.patch(jpcAddr, len(c.code))

		c.advance() // consume "else"
		if err := c.statement(); err != nil {
			return err
		}
		c.patch(jmpAddr, len(c.code))
		return nil
	}

	c.patch(jpcAddr, len(c.code))
	return nil
}

func (c *Compiler) whileStatement() error {
	loopTop := len(c.code)

	c.advance() // consume "while"
	if err := c.condition(); err != nil {
		return err
	}
	flagReg := c.curReg - 1

	if err := c.expect(token.DO, 11); err != nil {
		return err
	}

	jpcAddr := c.emit(isa.JPC, flagReg, 0, 0)
	c.curReg--

	if err := c.statement(); err != nil {
		return err
	}

	c.emit(isa.JMP, 0, 0, loopTop)
	c.patch(jpcAddr, len(c.code))
	return nil
}

func (c *Compiler) readStatement() error {
	c.advance() // consume "read"
	if c.cur.Kind != token.IDENT {
		return toolerr.NewParseError(3, c.cur.Line)
	}
	name := c.cur.Lexeme
	line := c.cur.Line
	c.advance()

	sym, ok := c.find(name)
	if !ok {
		return toolerr.NewParseError(undeclaredIdentifier, line)
	}
	if sym.Kind != symtab.VAR {
		return toolerr.NewParseError(16, line)
	}

	// Neither SIO_READ nor the following STO is part of an expression,
	// so curReg is used as scratch and left unchanged: the net effect
	// on the register stack is zero, matching the statement invariant.
	c.emit(isa.SIORead, c.curReg, 0, 2)
	c.emit(isa.STO, c.curReg, delta(c.level, sym.Level), sym.Address)
	return nil
}

func (c *Compiler) writeStatement() error {
	c.advance() // consume "write"

	// The operand is compiled as an expression, so a VAR becomes a LOD,
	// a CONST or number literal becomes a LIT, and SIO_WRITE reads the
	// register the expression left its value in.
	start := c.curReg
	if err := c.expression(); err != nil {
		return err
	}
	c.emit(isa.SIOWrite, start, 0, 1)
	c.curReg = start
	return nil
}

// condition = "odd" expression | expression relop expression .
// Like expression, condition leaves its 0/1 flag at the pre-call
// curReg and increments curReg by exactly one.
func (c *Compiler) condition() error {
	if c.cur.Kind == token.ODD {
		c.advance()
		start := c.curReg
		if err := c.expression(); err != nil {
			return err
		}
		c.emit(isa.ODD, start, 0, 0)
		return nil
	}

	if err := c.expression(); err != nil {
		return err
	}

	if !c.cur.IsRelational() {
		return toolerr.NewParseError(12, c.cur.Line)
	}
	op := relOp(c.cur.Kind)
	c.advance()

	if err := c.expression(); err != nil {
		return err
	}

	lhs := c.curReg - 2
	rhs := c.curReg - 1
	c.emit(op, lhs, lhs, rhs)
	c.curReg--
	return nil
}

// expression = ["+"|"-"] term {("+"|"-") term} .
func (c *Compiler) expression() error {
	negate := false
	switch c.cur.Kind {
	case token.PLUS:
		c.advance()
	case token.MINUS:
		negate = true
		c.advance()
	}

	start := c.curReg
	if err := c.term(); err != nil {
		return err
	}
	if negate {
		c.emit(isa.NEG, start, start, 0)
	}

	for c.cur.Kind == token.PLUS || c.cur.Kind == token.MINUS {
		op := isa.ADD
		if c.cur.Kind == token.MINUS {
			op = isa.SUB
		}
		c.advance()

		if err := c.term(); err != nil {
			return err
		}
		rhs := c.curReg - 1
		c.emit(op, start, start, rhs)
		c.curReg--
	}

	return nil
}

// term = factor {("*"|"/") factor} .
func (c *Compiler) term() error {
	start := c.curReg
	if err := c.factor(); err != nil {
		return err
	}

	for c.cur.Kind == token.STAR || c.cur.Kind == token.SLASH {
		op := isa.MUL
		if c.cur.Kind == token.SLASH {
			op = isa.DIV
		}
		c.advance()

		if err := c.factor(); err != nil {
			return err
		}
		rhs := c.curReg - 1
		c.emit(op, start, start, rhs)
		c.curReg--
	}

	return nil
}

// factor = ident | number | "(" expression ")" .
func (c *Compiler) factor() error {
	switch c.cur.Kind {
	case token.IDENT:
		name := c.cur.Lexeme
		line := c.cur.Line
		c.advance()

		sym, ok := c.find(name)
		if !ok {
			return toolerr.NewParseError(undeclaredIdentifier, line)
		}
		switch sym.Kind {
		case symtab.CONST:
			c.emit(isa.LIT, c.curReg, 0, sym.Value)
		case symtab.VAR:
			c.emit(isa.LOD, c.curReg, delta(c.level, sym.Level), sym.Address)
		default:
			return toolerr.NewParseError(14, line)
		}
		c.curReg++
		return nil

	case token.NUMBER:
		value := atoi(c.cur.Lexeme)
		c.emit(isa.LIT, c.curReg, 0, value)
		c.curReg++
		c.advance()
		return nil

	case token.LPAREN:
		c.advance()
		if err := c.expression(); err != nil {
			return err
		}
		return c.expect(token.RPAREN, 13)

	default:
		return toolerr.NewParseError(14, c.cur.Line)
	}
}

func relOp(k token.Kind) isa.Op {
	switch k {
	case token.EQUAL:
		return isa.EQL
	case token.NEQ:
		return isa.NEQ
	case token.LSS:
		return isa.LSS
	case token.LEQ:
		return isa.LEQ
	case token.GTR:
		return isa.GTR
	case token.GEQ:
		return isa.GEQ
	}
	return 0
}

func atoi(s string) int {
	n := 0
	for _, ch := range s {
		n = n*10 + int(ch-'0')
	}
	return n
}

// Package compiler translates Lotus source text directly to bytecode, in a
// single pass, without building a syntax tree. A Pratt parser drives
// expression compilation from a table of per-token handlers while the
// statement parser manages declarations, lexical scopes and closure
// capture. Code is emitted into the chunk of the function currently being
// compiled; nested function declarations stack a fresh function compiler
// onto a chain that the garbage collector walks as roots.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mna/lotus/lang/scanner"
	"github.com/mna/lotus/lang/token"
	"github.com/mna/lotus/lang/types"
)

// ErrCompile is returned (wrapped) for any compilation failure; the
// individual diagnostics have already been written to the options' Stderr.
var ErrCompile = errors.New("compile error")

// Options configures a compilation.
type Options struct {
	// Stderr receives the error diagnostics. Defaults to os.Stderr.
	Stderr io.Writer

	// Disasm, if non-nil, receives the disassembly of every successfully
	// compiled function.
	Disasm io.Writer
}

// Compile compiles source text to a top-level function allocated on heap.
// Diagnostics go to opts.Stderr in the form
//
//	[line N] Error at 'lexeme': message
//
// and the returned function is nil (with a non-nil error wrapping
// ErrCompile) if any were produced.
func Compile(src string, heap *types.Heap, opts Options) (*types.Function, error) {
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	c := &compiler{heap: heap, opts: opts}
	c.scan.Init(src)

	// the functions being built are unreachable from the machine until
	// compilation ends, keep them alive through the compiler chain
	heap.AddRoot(c)
	defer heap.RemoveRoot(c)

	c.pushFcomp(kindScript)
	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.popFcomp()

	if c.hadError {
		return nil, ErrCompile
	}
	return fn, nil
}

type funKind int

const (
	kindScript funKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

const maxLocals = 256

type local struct {
	name       token.Token
	depth      int // -1 while the initializer is being compiled
	isCaptured bool
}

type upvalue struct {
	index   uint8
	isLocal bool
}

// fcomp is the per-function compiler state; one is stacked for every
// nested function declaration.
type fcomp struct {
	enclosing *fcomp
	fn        *types.Function
	kind      funKind

	locals     [maxLocals]local
	localCount int
	upvalues   [maxLocals]upvalue
	scopeDepth int
}

// classComp tracks the innermost class declaration, for this/super
// resolution.
type classComp struct {
	enclosing     *classComp
	name          token.Token
	hasSuperclass bool
}

type compiler struct {
	scan scanner.Scanner
	heap *types.Heap
	opts Options

	current   token.Token
	previous  token.Token
	hadError  bool
	panicMode bool

	fc *fcomp
	cc *classComp
}

// MarkRoots marks every function on the compiler chain.
func (c *compiler) MarkRoots(h *types.Heap) {
	for fc := c.fc; fc != nil; fc = fc.enclosing {
		// fn is nil if the collection triggers during its own allocation
		if fc.fn != nil {
			h.MarkObject(fc.fn)
		}
	}
}

func (c *compiler) pushFcomp(kind funKind) {
	fc := &fcomp{enclosing: c.fc, kind: kind}
	c.fc = fc
	fc.fn = c.heap.NewFunction()
	if kind != kindScript {
		fc.fn.Name = c.heap.Intern(c.previous.Lexeme)
	}

	// slot 0 is reserved: it holds the receiver in methods and
	// initializers, and is unnameable otherwise
	slot := &fc.locals[fc.localCount]
	fc.localCount++
	slot.depth = 0
	if kind == kindMethod || kind == kindInitializer {
		slot.name = token.Synthetic("this")
	} else {
		slot.name = token.Synthetic("")
	}
}

func (c *compiler) popFcomp() *types.Function {
	c.emitReturn()
	fn := c.fc.fn
	if c.opts.Disasm != nil && !c.hadError {
		name := "<script>"
		if fn.Name != nil {
			name = fn.Name.Text()
		}
		fmt.Fprint(c.opts.Disasm, Disassemble(&fn.Chunk, name))
	}
	c.fc = c.fc.enclosing
	return fn
}

func (c *compiler) chunk() *types.Chunk { return &c.fc.fn.Chunk }

// parsing primitives

func (c *compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scan.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

func (c *compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

// error reporting and panic-mode recovery

func (c *compiler) errorAtCurrent(msg string) { c.errorAt(&c.current, msg) }
func (c *compiler) error(msg string)          { c.errorAt(&c.previous, msg) }

func (c *compiler) errorAt(tok *token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	fmt.Fprintf(c.opts.Stderr, "[line %d] Error", tok.Line)
	switch tok.Kind {
	case token.EOF:
		fmt.Fprint(c.opts.Stderr, " at end")
	case token.ILLEGAL:
		// nothing, the message is the scanner's
	default:
		fmt.Fprintf(c.opts.Stderr, " at '%s'", tok.Lexeme)
	}
	fmt.Fprintf(c.opts.Stderr, ": %s\n", msg)

	c.hadError = true
}

func (c *compiler) synchronize() {
	c.panicMode = false

	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMI {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// emission

func (c *compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }

func (c *compiler) emitOp(op Opcode) { c.emitByte(byte(op)) }

// emitOpParam emits op with its operand, switching to the long variant
// (op+1, 24-bit big-endian operand) when the operand does not fit a byte.
func (c *compiler) emitOpParam(op Opcode, param int) {
	if param < 256 {
		c.emitOp(op)
		c.emitByte(byte(param))
		return
	}
	c.emitOp(op + 1)
	c.emitByte(byte(param >> 16))
	c.emitByte(byte(param >> 8))
	c.emitByte(byte(param))
}

func (c *compiler) makeConstant(v types.Value) int {
	idx := c.chunk().AddConstant(v)
	if idx > 0xffffff {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *compiler) emitConstant(v types.Value) {
	c.emitOpParam(Constant, c.makeConstant(v))
}

func (c *compiler) emitReturn() {
	if c.fc.kind == kindInitializer {
		// an initializer always returns its receiver
		c.emitOpParam(GetLocal, 0)
	} else {
		c.emitOp(Nil)
	}
	c.emitOp(Return)
}

func (c *compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *compiler) patchJump(offset int) {
	// -2 to adjust for the jump operand itself
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *compiler) emitLoop(loopStart int) {
	c.emitOp(Loop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// declarations and statements

func (c *compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDecl()
	case c.match(token.FUN):
		c.funDecl()
	case c.match(token.VAR):
		c.varDecl()
	default:
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStmt()
	case c.match(token.IF):
		c.ifStmt()
	case c.match(token.FOR):
		c.forStmt()
	case c.match(token.RETURN):
		c.returnStmt()
	case c.match(token.WHILE):
		c.whileStmt()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.exprStmt()
	}
}

func (c *compiler) printStmt() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitOp(Print)
}

func (c *compiler) exprStmt() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitOp(Pop)
}

func (c *compiler) varDecl() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.EQ) {
		c.expression()
	} else {
		c.emitOp(Nil)
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

func (c *compiler) funDecl() {
	global := c.parseVariable("Expect function name.")
	// mark initialized right away so the body can refer to the function
	// recursively
	c.markInitialized()
	c.function(kindFunction)
	c.defineVariable(global)
}

func (c *compiler) function(kind funKind) {
	c.pushFcomp(kind)
	inner := c.fc
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after function name.")
	if !c.check(token.RPAREN) {
		for {
			inner.fn.Arity++
			if inner.fn.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			param := c.parseVariable("Expect parameter name.")
			c.defineVariable(param)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after parameters.")

	c.consume(token.LBRACE, "Expect '{' before function body.")
	c.block()

	// no endScope: popping the function compiler discards its locals
	fn := c.popFcomp()

	idx := c.chunk().AddConstant(fn)
	if idx > 255 {
		// there is no long form of the closure opcode
		c.error("Too many constants in one chunk.")
		idx = 0
	}
	c.emitOpParam(MakeClosure, idx)
	for i := 0; i < fn.UpvalueCount; i++ {
		if inner.upvalues[i].isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(inner.upvalues[i].index)
	}
}

func (c *compiler) classDecl() {
	c.consume(token.IDENT, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(&c.previous)
	c.declareVariable()

	c.emitOpParam(Class, nameConstant)
	c.defineVariable(nameConstant)

	cc := &classComp{enclosing: c.cc, name: className}
	c.cc = cc

	if c.match(token.LT) {
		c.consume(token.IDENT, "Expect superclass name.")
		c.variable(false)

		if className.Lexeme == c.previous.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		// each class declaration gets its own scope for the hidden 'super'
		// local, so the methods below close over the right superclass
		c.beginScope()
		super := token.Synthetic("super")
		c.addLocal(&super)
		c.defineVariable(0)

		c.namedVariable(&className, false)
		c.emitOp(Inherit)
		cc.hasSuperclass = true
	}

	c.namedVariable(&className, false)
	c.consume(token.LBRACE, "Expect '{' before class body.")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "Expect '}' after class body.")
	c.emitOp(Pop) // the class itself

	if cc.hasSuperclass {
		c.endScope()
	}
	c.cc = cc.enclosing
}

func (c *compiler) method() {
	c.consume(token.IDENT, "Expect method name.")
	constant := c.identifierConstant(&c.previous)

	kind := kindMethod
	if c.previous.Lexeme == "init" {
		kind = kindInitializer
	}
	c.function(kind)

	c.emitOpParam(Method, constant)
}

func (c *compiler) ifStmt() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(JumpIfFalse)
	c.emitOp(Pop) // the condition value
	c.statement()

	elseJump := c.emitJump(Jump)
	c.patchJump(thenJump)
	c.emitOp(Pop) // the condition value, not-taken side

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *compiler) whileStmt() {
	loopStart := len(c.chunk().Code)

	c.consume(token.LPAREN, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := c.emitJump(JumpIfFalse)
	c.emitOp(Pop)
	c.statement()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(Pop)
}

func (c *compiler) forStmt() {
	c.beginScope()

	c.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case c.match(token.SEMI):
		// no initializer
	case c.match(token.VAR):
		c.varDecl()
	default:
		c.exprStmt()
	}

	loopStart := len(c.chunk().Code)

	exitJump := -1
	if !c.match(token.SEMI) {
		c.expression()
		c.consume(token.SEMI, "Expect ';' after loop condition.")

		exitJump = c.emitJump(JumpIfFalse)
		c.emitOp(Pop)
	}

	if !c.match(token.RPAREN) {
		// the increment runs after the body: jump over it into the body,
		// loop back to it from the body's end, then from it to loopStart
		bodyJump := c.emitJump(Jump)

		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(Pop)
		c.consume(token.RPAREN, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(Pop)
	}

	c.endScope()
}

func (c *compiler) returnStmt() {
	if c.fc.kind == kindScript {
		c.error("Can't return from top-level code.")
	}

	if c.match(token.SEMI) {
		c.emitReturn()
		return
	}

	if c.fc.kind == kindInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.SEMI, "Expect ';' after return value.")
	c.emitOp(Return)
}

func (c *compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

// scopes and variables

func (c *compiler) beginScope() { c.fc.scopeDepth++ }

func (c *compiler) endScope() {
	fc := c.fc
	fc.scopeDepth--

	// discard the scope's locals; a captured one is hoisted into its
	// upvalue instead of being dropped
	for fc.localCount > 0 && fc.locals[fc.localCount-1].depth > fc.scopeDepth {
		if fc.locals[fc.localCount-1].isCaptured {
			c.emitOp(CloseUpvalue)
		} else {
			c.emitOp(Pop)
		}
		fc.localCount--
	}
}

func (c *compiler) parseVariable(errMsg string) int {
	c.consume(token.IDENT, errMsg)

	c.declareVariable()
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(&c.previous)
}

func (c *compiler) identifierConstant(name *token.Token) int {
	return c.makeConstant(c.heap.Intern(name.Lexeme))
}

func (c *compiler) declareVariable() {
	// globals are implicitly declared
	if c.fc.scopeDepth == 0 {
		return
	}

	name := &c.previous
	for i := c.fc.localCount - 1; i >= 0; i-- {
		l := &c.fc.locals[i]
		if l.depth != -1 && l.depth < c.fc.scopeDepth {
			break
		}
		if name.Lexeme == l.name.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *compiler) addLocal(name *token.Token) {
	if c.fc.localCount == maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	l := &c.fc.locals[c.fc.localCount]
	c.fc.localCount++
	l.name = *name
	l.depth = -1 // sentinel until the initializer is done
	l.isCaptured = false
}

func (c *compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[c.fc.localCount-1].depth = c.fc.scopeDepth
}

func (c *compiler) defineVariable(global int) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpParam(DefineGlobal, global)
}

func (c *compiler) resolveLocal(fc *fcomp, name *token.Token) int {
	for i := fc.localCount - 1; i >= 0; i-- {
		l := &fc.locals[i]
		if name.Lexeme == l.name.Lexeme {
			if l.depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue resolves name in the enclosing function compilers,
// marking the captured local and threading an upvalue through every
// intermediate function.
func (c *compiler) resolveUpvalue(fc *fcomp, name *token.Token) int {
	if fc.enclosing == nil {
		return -1
	}

	if local := c.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(fc, uint8(local), true)
	}

	if up := c.resolveUpvalue(fc.enclosing, name); up != -1 {
		return c.addUpvalue(fc, uint8(up), false)
	}
	return -1
}

func (c *compiler) addUpvalue(fc *fcomp, index uint8, isLocal bool) int {
	count := fc.fn.UpvalueCount

	for i := 0; i < count; i++ {
		uv := &fc.upvalues[i]
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}

	if count == maxLocals {
		c.error("Too many closure variables in function.")
		return 0
	}

	fc.upvalues[count] = upvalue{index: index, isLocal: isLocal}
	fc.fn.UpvalueCount++
	return count
}

func (c *compiler) namedVariable(name *token.Token, canAssign bool) {
	var getOp, setOp Opcode

	param := c.resolveLocal(c.fc, name)
	switch {
	case param != -1:
		getOp, setOp = GetLocal, SetLocal
	default:
		if param = c.resolveUpvalue(c.fc, name); param != -1 {
			getOp, setOp = GetUpvalue, SetUpvalue
		} else {
			param = c.identifierConstant(name)
			getOp, setOp = GetGlobal, SetGlobal
		}
	}

	if canAssign && c.match(token.EQ) {
		c.expression()
		c.emitOpParam(setOp, param)
	} else {
		c.emitOpParam(getOp, param)
	}
}

// expressions

func (c *compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := rules[c.previous.Kind].prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= rules[c.current.Kind].prec {
		c.advance()
		rules[c.previous.Kind].infix(c, canAssign)
	}

	if canAssign && c.match(token.EQ) {
		c.error("Invalid assignment target.")
	}
}

func (c *compiler) grouping(bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *compiler) number(bool) {
	v, _ := strconv.ParseFloat(c.previous.Lexeme, 64)
	c.emitConstant(types.Float(v))
}

func (c *compiler) stringLit(bool) {
	// trim the quotes
	lex := c.previous.Lexeme
	c.emitConstant(c.heap.Intern(lex[1 : len(lex)-1]))
}

func (c *compiler) literal(bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(False)
	case token.NIL:
		c.emitOp(Nil)
	case token.TRUE:
		c.emitOp(True)
	}
}

func (c *compiler) variable(canAssign bool) {
	name := c.previous
	c.namedVariable(&name, canAssign)
}

func (c *compiler) unary(bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)

	switch op {
	case token.MINUS:
		c.emitOp(Negate)
	case token.BANG:
		c.emitOp(Not)
	}
}

func (c *compiler) binary(bool) {
	op := c.previous.Kind
	// +1: binary operators are left-associative, the right operand must
	// bind tighter
	c.parsePrecedence(rules[op].prec + 1)

	switch op {
	case token.PLUS:
		c.emitOp(Add)
	case token.MINUS:
		c.emitOp(Subtract)
	case token.STAR:
		c.emitOp(Multiply)
	case token.SLASH:
		c.emitOp(Divide)
	case token.BANGEQ:
		c.emitOp(NotEqual)
	case token.EQEQ:
		c.emitOp(Equal)
	case token.GT:
		c.emitOp(Greater)
	case token.GE:
		c.emitOp(GreaterEqual)
	case token.LT:
		c.emitOp(Less)
	case token.LE:
		c.emitOp(LessEqual)
	}
}

func (c *compiler) and(bool) {
	// if the left operand is falsey it is the expression's value
	endJump := c.emitJump(JumpIfFalse)
	c.emitOp(Pop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *compiler) or(bool) {
	// if the left operand is truthy it is the expression's value
	elseJump := c.emitJump(JumpIfFalse)
	endJump := c.emitJump(Jump)

	c.patchJump(elseJump)
	c.emitOp(Pop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *compiler) call(bool) {
	argc := c.argumentList()
	c.emitOpParam(Call, int(argc))
}

func (c *compiler) argumentList() uint8 {
	var argc uint8
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "Expect ')' after arguments.")
	return argc
}

func (c *compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "Expect property name after '.'.")
	name := c.identifierConstant(&c.previous)

	switch {
	case canAssign && c.match(token.EQ):
		c.expression()
		c.emitOpParam(SetProperty, name)
	case c.match(token.LPAREN):
		// immediate call, no bound method needed
		argc := c.argumentList()
		c.emitOpParam(Invoke, name)
		c.emitByte(argc)
	default:
		c.emitOpParam(GetProperty, name)
	}
}

func (c *compiler) this(bool) {
	if c.cc == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.variable(false)
}

func (c *compiler) super(bool) {
	switch {
	case c.cc == nil:
		c.error("Can't use 'super' outside of a class.")
	case !c.cc.hasSuperclass:
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.DOT, "Expect '.' after 'super'.")
	c.consume(token.IDENT, "Expect superclass method name.")
	name := c.identifierConstant(&c.previous)

	this := token.Synthetic("this")
	c.namedVariable(&this, false)
	super := token.Synthetic("super")

	if c.match(token.LPAREN) {
		argc := c.argumentList()
		c.namedVariable(&super, false)
		c.emitOpParam(SuperInvoke, name)
		c.emitByte(argc)
	} else {
		c.namedVariable(&super, false)
		c.emitOpParam(GetSuper, name)
	}
}

// Pratt table

type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type handler func(*compiler, bool)

type rule struct {
	prefix handler
	infix  handler
	prec   precedence
}

var rules [token.NumKinds]rule

// the table references the handlers and parsePrecedence consults the
// table, so it cannot be a composite literal
func init() {
	rules[token.LPAREN] = rule{(*compiler).grouping, (*compiler).call, precCall}
	rules[token.DOT] = rule{nil, (*compiler).dot, precCall}
	rules[token.MINUS] = rule{(*compiler).unary, (*compiler).binary, precTerm}
	rules[token.PLUS] = rule{nil, (*compiler).binary, precTerm}
	rules[token.SLASH] = rule{nil, (*compiler).binary, precFactor}
	rules[token.STAR] = rule{nil, (*compiler).binary, precFactor}
	rules[token.BANG] = rule{(*compiler).unary, nil, precNone}
	rules[token.BANGEQ] = rule{nil, (*compiler).binary, precEquality}
	rules[token.EQEQ] = rule{nil, (*compiler).binary, precEquality}
	rules[token.GT] = rule{nil, (*compiler).binary, precComparison}
	rules[token.GE] = rule{nil, (*compiler).binary, precComparison}
	rules[token.LT] = rule{nil, (*compiler).binary, precComparison}
	rules[token.LE] = rule{nil, (*compiler).binary, precComparison}
	rules[token.IDENT] = rule{(*compiler).variable, nil, precNone}
	rules[token.STRING] = rule{(*compiler).stringLit, nil, precNone}
	rules[token.NUMBER] = rule{(*compiler).number, nil, precNone}
	rules[token.AND] = rule{nil, (*compiler).and, precAnd}
	rules[token.OR] = rule{nil, (*compiler).or, precOr}
	rules[token.FALSE] = rule{(*compiler).literal, nil, precNone}
	rules[token.NIL] = rule{(*compiler).literal, nil, precNone}
	rules[token.TRUE] = rule{(*compiler).literal, nil, precNone}
	rules[token.SUPER] = rule{(*compiler).super, nil, precNone}
	rules[token.THIS] = rule{(*compiler).this, nil, precNone}
}

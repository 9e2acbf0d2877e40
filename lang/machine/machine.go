// Package machine implements the stack-based virtual machine that executes
// compiled Lotus bytecode: a value stack, a call-frame stack, the globals
// table, the open-upvalue list and the method dispatch logic. The machine
// owns the heap and is a root provider for its garbage collector.
package machine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"github.com/mna/lotus/lang/compiler"
	"github.com/mna/lotus/lang/types"
)

//nolint:revive
const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

var (
	// ErrCompile is returned by Interpret when compilation failed.
	ErrCompile = compiler.ErrCompile

	// ErrRuntime is returned by Interpret when execution failed. The
	// diagnostic and stack trace have already been written to stderr.
	ErrRuntime = errors.New("runtime error")
)

// Config tunes the machine and its collector. All fields are optional and
// load from the environment via ConfigFromEnv.
type Config struct {
	types.HeapConfig

	// TraceExec disassembles every instruction to stderr as it executes,
	// with the current stack contents.
	TraceExec bool `env:"LOTUS_TRACE_EXEC"`

	// PrintCode disassembles every function to stderr as it is compiled.
	PrintCode bool `env:"LOTUS_PRINT_CODE"`
}

// ConfigFromEnv loads the configuration from the LOTUS_* environment
// variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

type callFrame struct {
	closure *types.Closure
	ip      int
	base    int // index of the callee's slot 0 in the value stack
}

// A Machine interprets compiled bytecode. Create one with New; a single
// machine can interpret any number of sources in sequence (the REPL relies
// on this), sharing its globals and heap across runs.
type Machine struct {
	cfg   Config
	stdin *bufio.Reader
	out   io.Writer
	errw  io.Writer

	heap       *types.Heap
	stack      [StackMax]types.Value
	sp         int
	frames     [FramesMax]callFrame
	frameCount int

	globals      types.Table
	openUpvalues *types.Upvalue
	initString   *types.String

	start time.Time
}

// New returns a machine reading and writing through stdio.
func New(cfg Config, stdio mainer.Stdio) *Machine {
	if stdio.Stdin == nil {
		stdio.Stdin = strings.NewReader("")
	}
	if stdio.Stdout == nil {
		stdio.Stdout = os.Stdout
	}
	if stdio.Stderr == nil {
		stdio.Stderr = os.Stderr
	}

	m := &Machine{
		cfg:   cfg,
		stdin: bufio.NewReader(stdio.Stdin),
		out:   stdio.Stdout,
		errw:  stdio.Stderr,
		start: time.Now(),
	}
	m.heap = types.NewHeap(cfg.HeapConfig, stdio.Stderr)
	m.heap.AddRoot(m)
	m.initString = m.heap.Intern("init")
	m.registerNatives()
	return m
}

// Heap returns the machine's heap.
func (m *Machine) Heap() *types.Heap { return m.heap }

// MarkRoots marks the value stack, the call frames' closures, the open
// upvalues, the globals and the cached init string.
func (m *Machine) MarkRoots(h *types.Heap) {
	for i := 0; i < m.sp; i++ {
		h.MarkValue(m.stack[i])
	}
	for i := 0; i < m.frameCount; i++ {
		h.MarkObject(m.frames[i].closure)
	}
	for uv := m.openUpvalues; uv != nil; uv = uv.NextOpen {
		h.MarkObject(uv)
	}
	h.MarkTable(&m.globals)
	// nil until the machine finishes initializing
	if m.initString != nil {
		h.MarkObject(m.initString)
	}
}

// Interpret compiles and runs a source text. It returns nil on success, an
// error wrapping ErrCompile if compilation failed, or an error wrapping
// ErrRuntime if execution failed; diagnostics are written to stderr as
// they occur.
func (m *Machine) Interpret(src string) error {
	copts := compiler.Options{Stderr: m.errw}
	if m.cfg.PrintCode {
		copts.Disasm = m.errw
	}

	fn, err := compiler.Compile(src, m.heap, copts)
	if err != nil {
		return err
	}

	m.push(fn)
	closure := m.heap.NewClosure(fn)
	m.pop()
	m.push(closure)
	if err := m.call(closure, 0); err != nil {
		m.reportRuntimeError(err)
		return ErrRuntime
	}

	if err := m.run(); err != nil {
		m.reportRuntimeError(err)
		return ErrRuntime
	}
	return nil
}

// stack primitives

func (m *Machine) push(v types.Value) {
	m.stack[m.sp] = v
	m.sp++
}

func (m *Machine) pop() types.Value {
	m.sp--
	return m.stack[m.sp]
}

func (m *Machine) peek(distance int) types.Value {
	return m.stack[m.sp-1-distance]
}

func (m *Machine) resetStack() {
	m.sp = 0
	m.frameCount = 0
	m.openUpvalues = nil
}

// the interpreter loop

func (m *Machine) run() error {
	frame := &m.frames[m.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Fn.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi, lo := readByte(), readByte()
		return int(hi)<<8 | int(lo)
	}
	readLong := func() int {
		b1, b2, b3 := readByte(), readByte(), readByte()
		return int(b1)<<16 | int(b2)<<8 | int(b3)
	}
	readConstant := func(long bool) types.Value {
		if long {
			return frame.closure.Fn.Chunk.Constants[readLong()]
		}
		return frame.closure.Fn.Chunk.Constants[int(readByte())]
	}
	readString := func(long bool) *types.String {
		return readConstant(long).(*types.String)
	}

	for {
		if m.cfg.TraceExec {
			var sb strings.Builder
			sb.WriteString("          ")
			for i := 0; i < m.sp; i++ {
				fmt.Fprintf(&sb, "[ %s ]", m.stack[i])
			}
			sb.WriteByte('\n')
			sb.WriteString(compiler.DisassembleAt(&frame.closure.Fn.Chunk, frame.ip))
			fmt.Fprint(m.errw, sb.String())
		}

		op := compiler.Opcode(readByte())
		switch op {
		case compiler.Constant, compiler.ConstantLong:
			m.push(readConstant(op == compiler.ConstantLong))

		case compiler.Nil:
			m.push(types.Nil)
		case compiler.True:
			m.push(types.True)
		case compiler.False:
			m.push(types.False)
		case compiler.Pop:
			m.pop()

		case compiler.GetLocal:
			slot := int(readByte())
			m.push(m.stack[frame.base+slot])

		case compiler.SetLocal:
			slot := int(readByte())
			m.stack[frame.base+slot] = m.peek(0)

		case compiler.GetGlobal, compiler.GetGlobalLong:
			name := readString(op == compiler.GetGlobalLong)
			v, ok := m.globals.Get(name)
			if !ok {
				return fmt.Errorf("Undefined variable '%s'.", name.Text())
			}
			m.push(v)

		case compiler.SetGlobal, compiler.SetGlobalLong:
			name := readString(op == compiler.SetGlobalLong)
			if m.globals.Set(name, m.peek(0)) {
				// assignment never creates a global
				m.globals.Delete(name)
				return fmt.Errorf("Undefined variable '%s'.", name.Text())
			}

		case compiler.DefineGlobal, compiler.DefineGlobalLong:
			name := readString(op == compiler.DefineGlobalLong)
			m.globals.Set(name, m.peek(0))
			m.pop()

		case compiler.GetUpvalue:
			uv := frame.closure.Upvalues[readByte()]
			if uv.IsOpen() {
				m.push(m.stack[uv.Slot])
			} else {
				m.push(uv.Closed)
			}

		case compiler.SetUpvalue:
			uv := frame.closure.Upvalues[readByte()]
			if uv.IsOpen() {
				m.stack[uv.Slot] = m.peek(0)
			} else {
				uv.Closed = m.peek(0)
			}

		case compiler.Equal:
			b, a := m.pop(), m.pop()
			m.push(types.Bool(types.Equal(a, b)))

		case compiler.NotEqual:
			b, a := m.pop(), m.pop()
			m.push(types.Bool(!types.Equal(a, b)))

		case compiler.Greater, compiler.GreaterEqual, compiler.Less, compiler.LessEqual:
			b, bok := m.peek(0).(types.Float)
			a, aok := m.peek(1).(types.Float)
			if !aok || !bok {
				return errors.New("Operands must be numbers.")
			}
			m.pop()
			m.pop()
			var res bool
			switch op {
			case compiler.Greater:
				res = a > b
			case compiler.GreaterEqual:
				res = a >= b
			case compiler.Less:
				res = a < b
			case compiler.LessEqual:
				res = a <= b
			}
			m.push(types.Bool(res))

		case compiler.Add:
			switch rhs := m.peek(0).(type) {
			case types.Float:
				lhs, ok := m.peek(1).(types.Float)
				if !ok {
					return errors.New("Operands must be two numbers or two strings.")
				}
				m.pop()
				m.pop()
				m.push(lhs + rhs)
			case *types.String:
				lhs, ok := m.peek(1).(*types.String)
				if !ok {
					return errors.New("Operands must be two numbers or two strings.")
				}
				// concatenate while both operands are still rooted on the
				// stack, the result is interned and may trigger a collection
				res := m.heap.Intern(lhs.Text() + rhs.Text())
				m.pop()
				m.pop()
				m.push(res)
			default:
				return errors.New("Operands must be two numbers or two strings.")
			}

		case compiler.Subtract, compiler.Multiply, compiler.Divide:
			b, bok := m.peek(0).(types.Float)
			a, aok := m.peek(1).(types.Float)
			if !aok || !bok {
				return errors.New("Operands must be numbers.")
			}
			m.pop()
			m.pop()
			switch op {
			case compiler.Subtract:
				m.push(a - b)
			case compiler.Multiply:
				m.push(a * b)
			case compiler.Divide:
				m.push(a / b)
			}

		case compiler.Not:
			m.push(types.Bool(!types.Truth(m.pop())))

		case compiler.Negate:
			f, ok := m.peek(0).(types.Float)
			if !ok {
				return errors.New("Operand must be a number.")
			}
			m.stack[m.sp-1] = -f

		case compiler.Print:
			fmt.Fprintln(m.out, m.pop())

		case compiler.Jump:
			offset := readShort()
			frame.ip += offset

		case compiler.JumpIfFalse:
			offset := readShort()
			if !types.Truth(m.peek(0)) {
				frame.ip += offset
			}

		case compiler.Loop:
			offset := readShort()
			frame.ip -= offset

		case compiler.Call:
			argc := int(readByte())
			if err := m.callValue(m.peek(argc), argc); err != nil {
				return err
			}
			frame = &m.frames[m.frameCount-1]

		case compiler.Invoke, compiler.InvokeLong:
			name := readString(op == compiler.InvokeLong)
			argc := int(readByte())
			if err := m.invoke(name, argc); err != nil {
				return err
			}
			frame = &m.frames[m.frameCount-1]

		case compiler.SuperInvoke, compiler.SuperInvokeLong:
			name := readString(op == compiler.SuperInvokeLong)
			argc := int(readByte())
			super := m.pop().(*types.Class)
			if err := m.invokeFromClass(super, name, argc); err != nil {
				return err
			}
			frame = &m.frames[m.frameCount-1]

		case compiler.MakeClosure:
			fn := readConstant(false).(*types.Function)
			closure := m.heap.NewClosure(fn)
			m.push(closure)
			for i := range closure.Upvalues {
				isLocal := readByte() == 1
				index := int(readByte())
				if isLocal {
					closure.Upvalues[i] = m.captureUpvalue(frame.base + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case compiler.CloseUpvalue:
			m.closeUpvalues(m.sp - 1)
			m.pop()

		case compiler.Return:
			result := m.pop()
			m.closeUpvalues(frame.base)
			m.frameCount--
			if m.frameCount == 0 {
				m.pop() // the script closure
				return nil
			}
			m.sp = frame.base
			m.push(result)
			frame = &m.frames[m.frameCount-1]

		case compiler.Class, compiler.ClassLong:
			m.push(m.heap.NewClass(readString(op == compiler.ClassLong)))

		case compiler.GetProperty, compiler.GetPropertyLong:
			inst, ok := m.peek(0).(*types.Instance)
			if !ok {
				return errors.New("Only instances have properties.")
			}
			name := readString(op == compiler.GetPropertyLong)

			// fields shadow methods
			if v, ok := inst.Fields.Get(name); ok {
				m.pop()
				m.push(v)
				break
			}
			if err := m.bindMethod(inst.Class, name); err != nil {
				return err
			}

		case compiler.SetProperty, compiler.SetPropertyLong:
			inst, ok := m.peek(1).(*types.Instance)
			if !ok {
				return errors.New("Only instances have fields.")
			}
			name := readString(op == compiler.SetPropertyLong)
			inst.Fields.Set(name, m.peek(0))

			// the assigned value is the expression's value
			value := m.pop()
			m.pop()
			m.push(value)

		case compiler.GetSuper, compiler.GetSuperLong:
			name := readString(op == compiler.GetSuperLong)
			super := m.pop().(*types.Class)
			if err := m.bindMethod(super, name); err != nil {
				return err
			}

		case compiler.Inherit:
			super, ok := m.peek(1).(*types.Class)
			if !ok {
				return errors.New("Superclass must be a class.")
			}
			sub := m.peek(0).(*types.Class)
			sub.Methods.AddAll(&super.Methods)
			m.pop() // the subclass

		case compiler.Method, compiler.MethodLong:
			name := readString(op == compiler.MethodLong)
			method := m.peek(0).(*types.Closure)
			class := m.peek(1).(*types.Class)
			class.Methods.Set(name, method)
			m.pop()

		default:
			return fmt.Errorf("unknown opcode %d", byte(op))
		}
	}
}

// call dispatch

func (m *Machine) callValue(callee types.Value, argc int) error {
	switch callee := callee.(type) {
	case *types.BoundMethod:
		m.stack[m.sp-argc-1] = callee.Receiver
		return m.call(callee.Method, argc)

	case *types.Class:
		m.stack[m.sp-argc-1] = m.heap.NewInstance(callee)
		if init, ok := callee.Methods.Get(m.initString); ok {
			return m.call(init.(*types.Closure), argc)
		}
		if argc != 0 {
			return fmt.Errorf("Expected 0 arguments but got %d.", argc)
		}
		return nil

	case *types.Closure:
		return m.call(callee, argc)

	case *types.Native:
		if argc != callee.Arity {
			return fmt.Errorf("Expected %d arguments but got %d.", callee.Arity, argc)
		}
		res, err := callee.Fn(m.stack[m.sp-argc : m.sp])
		if err != nil {
			return err
		}
		m.sp -= argc + 1
		m.push(res)
		return nil

	default:
		return errors.New("Can only call functions and classes.")
	}
}

func (m *Machine) call(closure *types.Closure, argc int) error {
	if argc != closure.Fn.Arity {
		return fmt.Errorf("Expected %d arguments but got %d.", closure.Fn.Arity, argc)
	}
	if m.frameCount == FramesMax {
		return errors.New("Stack overflow.")
	}

	frame := &m.frames[m.frameCount]
	m.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.base = m.sp - argc - 1
	return nil
}

func (m *Machine) invoke(name *types.String, argc int) error {
	inst, ok := m.peek(argc).(*types.Instance)
	if !ok {
		return errors.New("Only instances have methods.")
	}

	// a field holding a callable shadows the method
	if v, ok := inst.Fields.Get(name); ok {
		m.stack[m.sp-argc-1] = v
		return m.callValue(v, argc)
	}
	return m.invokeFromClass(inst.Class, name, argc)
}

func (m *Machine) invokeFromClass(class *types.Class, name *types.String, argc int) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return fmt.Errorf("Undefined property '%s'.", name.Text())
	}
	return m.call(method.(*types.Closure), argc)
}

func (m *Machine) bindMethod(class *types.Class, name *types.String) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return fmt.Errorf("Undefined property '%s'.", name.Text())
	}

	// the receiver stays on the stack while the bound method is allocated
	bound := m.heap.NewBoundMethod(m.peek(0), method.(*types.Closure))
	m.pop()
	m.push(bound)
	return nil
}

// open upvalues

// captureUpvalue returns the open upvalue for the given stack slot,
// reusing an existing one so that all closures capturing the same
// variable share it. The open list is kept sorted by descending slot.
func (m *Machine) captureUpvalue(slot int) *types.Upvalue {
	var prev *types.Upvalue
	uv := m.openUpvalues
	for uv != nil && uv.Slot > slot {
		prev = uv
		uv = uv.NextOpen
	}
	if uv != nil && uv.Slot == slot {
		return uv
	}

	created := m.heap.NewUpvalue(slot)
	created.NextOpen = uv
	if prev == nil {
		m.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above the given stack
// slot, hoisting the captured value into the upvalue itself.
func (m *Machine) closeUpvalues(last int) {
	for m.openUpvalues != nil && m.openUpvalues.Slot >= last {
		uv := m.openUpvalues
		uv.Closed = m.stack[uv.Slot]
		uv.Slot = -1
		m.openUpvalues = uv.NextOpen
		uv.NextOpen = nil
	}
}

// error reporting

// reportRuntimeError prints the diagnostic and a stack trace from the
// innermost frame outward, then resets the machine for the next
// interpretation.
func (m *Machine) reportRuntimeError(err error) {
	fmt.Fprintln(m.errw, err)

	for i := m.frameCount - 1; i >= 0; i-- {
		frame := &m.frames[i]
		fn := frame.closure.Fn
		line := fn.Chunk.Line(frame.ip - 1)
		if fn.Name == nil {
			fmt.Fprintf(m.errw, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(m.errw, "[line %d] in %s()\n", line, fn.Name.Text())
		}
	}

	m.resetStack()
}

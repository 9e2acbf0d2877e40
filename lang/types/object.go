package types

// Obj is the interface implemented by heap-allocated values. Every object
// carries a header with the collector's mark bit and the intrusive link of
// the heap's allocation list.
type Obj interface {
	Value
	header() *objHeader
}

type objHeader struct {
	marked bool
	size   int // nominal size charged to the heap at allocation
	next   Obj
}

func (h *objHeader) header() *objHeader { return h }

var (
	_ Obj = (*String)(nil)
	_ Obj = (*Function)(nil)
	_ Obj = (*Native)(nil)
	_ Obj = (*Closure)(nil)
	_ Obj = (*Upvalue)(nil)
	_ Obj = (*Class)(nil)
	_ Obj = (*Instance)(nil)
	_ Obj = (*BoundMethod)(nil)
)

// A String is an immutable, interned string. Two equal byte sequences
// always share one *String, so equality is pointer identity.
type String struct {
	objHeader
	str  string
	hash uint32
}

func (s *String) String() string { return s.str }
func (s *String) Type() string   { return "string" }

// Text returns the raw bytes of the string.
func (s *String) Text() string { return s.str }

// Hash returns the precomputed FNV-1a hash of the string.
func (s *String) Hash() uint32 { return s.hash }

// A Function is the compiled form of a function declaration, or of the
// top-level script. It is referenced by closures, by the constants pool of
// the enclosing function's chunk and, during compilation, by the
// compiler's function chain.
type Function struct {
	objHeader
	Arity        int
	UpvalueCount int
	Name         *String // nil for the top-level script
	Chunk        Chunk
}

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.str + ">"
}
func (f *Function) Type() string { return "function" }

// A NativeFn is the host implementation of a native function. It receives
// the argument slots and returns the call's result.
type NativeFn func(args []Value) (Value, error)

// A Native is a built-in function implemented by the host.
type Native struct {
	objHeader
	Name  string
	Arity int
	Fn    NativeFn
}

func (n *Native) String() string { return "<native fn>" }
func (n *Native) Type() string   { return "function" }

// A Closure pairs a function with the upvalues binding its free variables.
// len(Upvalues) is always the function's UpvalueCount.
type Closure struct {
	objHeader
	Fn       *Function
	Upvalues []*Upvalue
}

func (c *Closure) String() string { return c.Fn.String() }
func (c *Closure) Type() string   { return "function" }

// An Upvalue refers either to a live stack slot (open) or to a value
// hoisted into the upvalue itself (closed). Open upvalues are linked in
// the machine's list, sorted by descending slot index.
type Upvalue struct {
	objHeader
	Slot     int // stack slot while open, -1 once closed
	Closed   Value
	NextOpen *Upvalue
}

// IsOpen reports whether the upvalue still points into the value stack.
func (u *Upvalue) IsOpen() bool { return u.Slot >= 0 }

func (u *Upvalue) String() string { return "upvalue" }
func (u *Upvalue) Type() string   { return "upvalue" }

// A Class is a named collection of methods.
type Class struct {
	objHeader
	Name    *String
	Methods Table
}

func (c *Class) String() string { return c.Name.str }
func (c *Class) Type() string   { return "class" }

// An Instance of a class holds its fields. Fields shadow methods on reads.
type Instance struct {
	objHeader
	Class  *Class
	Fields Table
}

func (i *Instance) String() string { return i.Class.Name.str + " instance" }
func (i *Instance) Type() string   { return "instance" }

// A BoundMethod pairs a receiver with a method closure. It is created when
// a method is read as a value from an instance.
type BoundMethod struct {
	objHeader
	Receiver Value
	Method   *Closure
}

func (b *BoundMethod) String() string { return b.Method.String() }
func (b *BoundMethod) Type() string   { return "function" }

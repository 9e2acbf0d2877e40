package types

import "io"

// HeapConfig tunes the collector. It is filled from the environment by the
// machine's config loading.
type HeapConfig struct {
	// Stress forces a collection on every allocation. Program output must
	// not depend on it.
	Stress bool `env:"LOTUS_GC_STRESS"`

	// Log traces collections to the heap's log writer.
	Log bool `env:"LOTUS_GC_LOG"`

	// NextGC is the initial heap-growth trigger, in nominal bytes.
	NextGC int `env:"LOTUS_GC_NEXT" envDefault:"1048576"`
}

// A RootMarker contributes roots to the mark phase. The machine is one for
// the lifetime of a run; the compiler registers itself for the duration of
// a compile so the functions being built survive collections.
type RootMarker interface {
	MarkRoots(h *Heap)
}

// A Heap owns every object allocated by the compiler and the machine,
// linked in a single intrusive list, and reclaims the unreachable ones
// with a precise stop-the-world mark-and-sweep collector. It also interns
// every string through a weak table.
type Heap struct {
	cfg  HeapConfig
	logw io.Writer

	objects        Obj
	strings        Table
	bytesAllocated int
	nextGC         int

	gray      []Obj
	roots     []RootMarker
	protected []Value
}

// NewHeap returns an empty heap. The log writer receives collection traces
// when cfg.Log is set; it may be nil if logging is disabled.
func NewHeap(cfg HeapConfig, logw io.Writer) *Heap {
	if cfg.NextGC <= 0 {
		cfg.NextGC = 1 << 20
	}
	if logw == nil {
		logw = io.Discard
	}
	return &Heap{cfg: cfg, logw: logw, nextGC: cfg.NextGC}
}

// BytesAllocated returns the nominal number of live heap bytes.
func (h *Heap) BytesAllocated() int { return h.bytesAllocated }

// AddRoot registers a root marker for subsequent collections.
func (h *Heap) AddRoot(r RootMarker) { h.roots = append(h.roots, r) }

// RemoveRoot unregisters a root marker.
func (h *Heap) RemoveRoot(r RootMarker) {
	for i, m := range h.roots {
		if m == r {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// Protect shields v from collection until the matching Unprotect, for
// multi-step constructions where a fresh object is not yet reachable from
// any root.
func (h *Heap) Protect(v Value) { h.protected = append(h.protected, v) }

// Unprotect removes the most recently protected value.
func (h *Heap) Unprotect() { h.protected = h.protected[:len(h.protected)-1] }

// Intern returns the unique *String for s, allocating it on first use.
// The intern table is weak: it does not keep strings alive across
// collections.
func (h *Heap) Intern(s string) *String {
	hash := hashString(s)
	if interned := h.strings.FindString(s, hash); interned != nil {
		return interned
	}

	str := &String{str: s, hash: hash}
	h.adopt(str, sizeString+len(s))
	h.Protect(str)
	h.strings.Set(str, True)
	h.Unprotect()
	return str
}

// NewFunction allocates a function with an empty chunk. The name is
// assigned by the compiler once known.
func (h *Heap) NewFunction() *Function {
	fn := &Function{}
	h.adopt(fn, sizeFunction)
	return fn
}

// NewNative allocates a built-in function.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *Native {
	n := &Native{Name: name, Arity: arity, Fn: fn}
	h.adopt(n, sizeNative)
	return n
}

// NewClosure allocates a closure for fn with room for its upvalues.
func (h *Heap) NewClosure(fn *Function) *Closure {
	c := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	h.adopt(c, sizeClosure+ptrSize*fn.UpvalueCount)
	return c
}

// NewUpvalue allocates an open upvalue for the given stack slot.
func (h *Heap) NewUpvalue(slot int) *Upvalue {
	u := &Upvalue{Slot: slot, Closed: Nil}
	h.adopt(u, sizeUpvalue)
	return u
}

// NewClass allocates a class with an empty method table.
func (h *Heap) NewClass(name *String) *Class {
	c := &Class{Name: name}
	h.adopt(c, sizeClass)
	return c
}

// NewInstance allocates an instance of class with no fields.
func (h *Heap) NewInstance(class *Class) *Instance {
	i := &Instance{Class: class}
	h.adopt(i, sizeInstance)
	return i
}

// NewBoundMethod allocates a bound method.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	b := &BoundMethod{Receiver: receiver, Method: method}
	h.adopt(b, sizeBound)
	return b
}

// nominal object sizes, close enough to drive the growth trigger
const (
	ptrSize      = 8
	sizeString   = 40
	sizeFunction = 120
	sizeNative   = 48
	sizeClosure  = 48
	sizeUpvalue  = 56
	sizeClass    = 88
	sizeInstance = 88
	sizeBound    = 48
)

// adopt charges size to the heap, runs a collection if the growth trigger
// fired (or always, in stress mode), and links o into the object list. The
// collection runs before o is linked, so o itself is never swept here; its
// referents must be reachable from a root or protected.
func (h *Heap) adopt(o Obj, size int) {
	h.bytesAllocated += size
	if h.cfg.Stress || h.bytesAllocated > h.nextGC {
		h.Collect()
	}

	hd := o.header()
	hd.size = size
	hd.next = h.objects
	h.objects = o
}

func hashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

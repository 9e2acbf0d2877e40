package types

import "fmt"

const gcHeapGrowFactor = 2

// Collect runs a full stop-the-world mark-and-sweep collection: mark every
// root, trace the gray objects to a fixpoint, prune the weak intern table,
// then sweep the unreachable objects and schedule the next trigger.
func (h *Heap) Collect() {
	var before int
	if h.cfg.Log {
		before = h.bytesAllocated
		fmt.Fprintln(h.logw, "-- gc begin")
	}

	for _, r := range h.roots {
		r.MarkRoots(h)
	}
	for _, v := range h.protected {
		h.MarkValue(v)
	}
	h.trace()

	// the intern table is weak: drop the strings that did not survive the
	// trace, before sweep frees them
	h.strings.RemoveWhite()

	h.sweep()

	h.nextGC = h.bytesAllocated * gcHeapGrowFactor

	if h.cfg.Log {
		fmt.Fprintf(h.logw, "-- gc end: collected %d bytes (from %d to %d), next at %d\n",
			before-h.bytesAllocated, before, h.bytesAllocated, h.nextGC)
	}
}

// MarkValue marks the object referenced by v, if any.
func (h *Heap) MarkValue(v Value) {
	if o, ok := v.(Obj); ok {
		h.MarkObject(o)
	}
}

// MarkObject pushes o on the gray stack if it is not already marked.
func (h *Heap) MarkObject(o Obj) {
	if o == nil {
		return
	}
	hd := o.header()
	if hd.marked {
		return
	}
	hd.marked = true
	h.gray = append(h.gray, o)
}

// MarkTable marks every key and value of t.
func (h *Heap) MarkTable(t *Table) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil {
			h.MarkObject(e.key)
			h.MarkValue(e.value)
		}
	}
}

func (h *Heap) trace() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o Obj) {
	switch o := o.(type) {
	case *String, *Native:
		// no outgoing references

	case *Upvalue:
		h.MarkValue(o.Closed)

	case *Function:
		if o.Name != nil {
			h.MarkObject(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			h.MarkValue(c)
		}

	case *Closure:
		h.MarkObject(o.Fn)
		for _, u := range o.Upvalues {
			if u != nil {
				h.MarkObject(u)
			}
		}

	case *Class:
		h.MarkObject(o.Name)
		h.MarkTable(&o.Methods)

	case *Instance:
		h.MarkObject(o.Class)
		h.MarkTable(&o.Fields)

	case *BoundMethod:
		h.MarkValue(o.Receiver)
		h.MarkObject(o.Method)

	default:
		panic(fmt.Sprintf("unknown object kind %T", o))
	}
}

func (h *Heap) sweep() {
	var prev Obj
	o := h.objects
	for o != nil {
		hd := o.header()
		if hd.marked {
			hd.marked = false
			prev = o
			o = hd.next
			continue
		}

		unreached := o
		o = hd.next
		if prev != nil {
			prev.header().next = o
		} else {
			h.objects = o
		}
		h.free(unreached)
	}
}

// free releases the buffers owned by o and refunds its nominal size. The
// host allocator reclaims the memory itself once nothing refers to it.
func (h *Heap) free(o Obj) {
	switch o := o.(type) {
	case *Function:
		o.Chunk = Chunk{}
	case *Closure:
		o.Upvalues = nil
	case *Class:
		o.Methods = Table{}
	case *Instance:
		o.Fields = Table{}
	case *String, *Native, *Upvalue, *BoundMethod:
		// nothing owned
	default:
		panic(fmt.Sprintf("unknown object kind %T", o))
	}

	hd := o.header()
	h.bytesAllocated -= hd.size
	hd.next = nil
}

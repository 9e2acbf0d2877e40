package machine

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dolthub/swiss"

	"github.com/mna/lotus/lang/types"
)

// nativeDef describes a built-in function; make binds it to the machine
// that registers it.
type nativeDef struct {
	arity int
	make  func(m *Machine) types.NativeFn
}

var natives = func() *swiss.Map[string, nativeDef] {
	reg := swiss.NewMap[string, nativeDef](8)

	// clock() returns the seconds elapsed since the machine started, from
	// the monotonic clock.
	reg.Put("clock", nativeDef{arity: 0, make: func(m *Machine) types.NativeFn {
		return func([]types.Value) (types.Value, error) {
			return types.Float(time.Since(m.start).Seconds()), nil
		}
	}})

	// readln() reads one line from stdin, without the trailing newline;
	// it returns the empty string at EOF.
	reg.Put("readln", nativeDef{arity: 0, make: func(m *Machine) types.NativeFn {
		return func([]types.Value) (types.Value, error) {
			line, err := m.stdin.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			return m.heap.Intern(line), nil
		}
	}})

	return reg
}()

func (m *Machine) registerNatives() {
	natives.Iter(func(name string, def nativeDef) bool {
		m.defineNative(name, def.arity, def.make(m))
		return false
	})
}

// defineNative interns the name and defines the native as a global. Both
// objects transit through the value stack so a collection triggered
// mid-construction cannot reclaim them.
func (m *Machine) defineNative(name string, arity int, fn types.NativeFn) {
	m.push(m.heap.Intern(name))
	m.push(m.heap.NewNative(name, arity, fn))
	m.globals.Set(m.peek(1).(*types.String), m.peek(0))
	m.pop()
	m.pop()
}

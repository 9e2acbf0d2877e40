package machine_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lotus/lang/machine"
	"github.com/mna/lotus/lang/types"
)

func runSource(t *testing.T, cfg machine.Config, src string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errb bytes.Buffer
	m := machine.New(cfg, mainer.Stdio{
		Stdin:  strings.NewReader(""),
		Stdout: &out,
		Stderr: &errb,
	})
	err = m.Interpret(src)
	return out.String(), errb.String(), err
}

func TestExpressions(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`print 1 + 2 * 3;`, "7\n"},
		{`print (1 + 2) * 3;`, "9\n"},
		{`print 10 / 4;`, "2.5\n"},
		{`print 1 - 2;`, "-1\n"},
		{`print -(-7);`, "7\n"},
		{`print 1 < 2;`, "true\n"},
		{`print 2 <= 1;`, "false\n"},
		{`print 2 >= 2;`, "true\n"},
		{`print 3 > 4;`, "false\n"},
		{`print 1 == 1;`, "true\n"},
		{`print 1 != 2;`, "true\n"},
		{`print "a" + "bc";`, "abc\n"},
		{`print "a" == "a";`, "true\n"},
		{`print "a" == "b";`, "false\n"},
		{`print nil;`, "nil\n"},
		{`print true;`, "true\n"},
		{`print !nil;`, "true\n"},
		{`print !0;`, "true\n"},
		{`print !1;`, "false\n"},
		{`print !"";`, "false\n"},
		{`print nil == nil;`, "true\n"},
		{`print nil == false;`, "false\n"},
		{`print 0 == false;`, "false\n"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			out, errOut, err := runSource(t, machine.Config{}, c.src)
			require.NoError(t, err, errOut)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestShortCircuit(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`var x = 0; false and (x = 1); print x;`, "0\n"},
		{`var x = 0; true or (x = 1); print x;`, "0\n"},
		{`var x = 0; true and (x = 1); print x;`, "1\n"},
		{`var x = 0; false or (x = 1); print x;`, "1\n"},
		{`print 1 and 2;`, "2\n"},
		{`print nil and 2;`, "nil\n"},
		{`print nil or 2;`, "2\n"},
		{`print "lhs" or 2;`, "lhs\n"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			out, errOut, err := runSource(t, machine.Config{}, c.src)
			require.NoError(t, err, errOut)
			assert.Equal(t, c.want, out)
		})
	}
}

func TestClosures(t *testing.T) {
	t.Run("shared capture", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			fun makeCounter() {
				var i = 0;
				fun count() { i = i + 1; return i; }
				return count;
			}
			var c = makeCounter();
			print c();
			print c();
			print c();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "1\n2\n3\n", out)
	})

	t.Run("closed after scope end", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			var f;
			{
				var i = 10;
				fun g() { i = i + 1; print i; }
				f = g;
			}
			f();
			f();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "11\n12\n", out)
	})

	t.Run("two closures share one variable", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			var get; var set;
			{
				var x = "initial";
				fun g() { return x; }
				fun s(v) { x = v; }
				get = g; set = s;
			}
			print get();
			set("updated");
			print get();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "initial\nupdated\n", out)
	})
}

func TestClasses(t *testing.T) {
	t.Run("initializer and method", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { init(x) { this.x = x; } get() { return this.x; } }
			print A(7).get();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "7\n", out)
	})

	t.Run("bound method keeps its receiver", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { init(x) { this.x = x; } get() { return this.x; } }
			var m = A(1).get;
			print m();
			print A(1).get();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "1\n1\n", out)
	})

	t.Run("property set evaluates to its value", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { init(x) { this.x = x; } }
			print (A(1).x = 9);
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "9\n", out)
	})

	t.Run("fields shadow methods", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { tag() { return "method"; } }
			var a = A();
			print a.tag();
			fun other() { return "field"; }
			a.tag = other;
			print a.tag();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "method\nfield\n", out)
	})

	t.Run("implicit initializer return", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { init() { this.ready = true; } }
			print A().ready;
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "true\n", out)
	})
}

func TestInheritance(t *testing.T) {
	t.Run("super call", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { m() { return "A"; } }
			class B < A { m() { return super.m() + "B"; } }
			print B().m();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "AB\n", out)
	})

	t.Run("inherited method", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { m() { return "from A"; } }
			class B < A {}
			print B().m();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "from A\n", out)
	})

	t.Run("super as a value", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			class A { m() { return "A"; } }
			class B < A { m() { var f = super.m; return f(); } }
			print B().m();
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "A\n", out)
	})
}

func TestRuntimeErrors(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"add mismatch", `print 1 + "a";`, "Operands must be two numbers or two strings."},
		{"compare mismatch", `print 1 < "a";`, "Operands must be numbers."},
		{"negate mismatch", `print -"a";`, "Operand must be a number."},
		{"arity", `fun f(){} f(1);`, "Expected 0 arguments but got 1."},
		{"undefined read", `print missing;`, "Undefined variable 'missing'."},
		{"undefined write", `missing = 1;`, "Undefined variable 'missing'."},
		{"call non-callable", `"str"();`, "Can only call functions and classes."},
		{"property on non-instance", `var x = 1; x.y;`, "Only instances have properties."},
		{"field on non-instance", `var x = 1; x.y = 2;`, "Only instances have fields."},
		{"unknown property", `class A {} A().nope();`, "Undefined property 'nope'."},
		{"superclass not a class", `var NotAClass = 1; class B < NotAClass {}`, "Superclass must be a class."},
		{"stack overflow", `fun f(){ f(); } f();`, "Stack overflow."},
		{"class arity", `class A {} A(1);`, "Expected 0 arguments but got 1."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, errOut, err := runSource(t, machine.Config{}, c.src)
			require.ErrorIs(t, err, machine.ErrRuntime, out)
			assert.Contains(t, errOut, c.wantMsg)
			assert.Contains(t, errOut, "in script")
		})
	}
}

func TestWriteUndefinedGlobalDoesNotCreate(t *testing.T) {
	var out, errb bytes.Buffer
	m := machine.New(machine.Config{}, mainer.Stdio{Stdout: &out, Stderr: &errb})

	require.ErrorIs(t, m.Interpret(`missing = 1;`), machine.ErrRuntime)
	require.ErrorIs(t, m.Interpret(`print missing;`), machine.ErrRuntime)
	assert.Equal(t, "", out.String())
}

func TestCompileErrorsAbortRun(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"return at top level", `return 1;`, "Can't return from top-level code."},
		{"return value from init", `class A { init() { return 1; } }`, "Can't return a value from an initializer."},
		{"this outside class", `print this;`, "Can't use 'this' outside of a class."},
		{"super outside class", `print super.m;`, "Can't use 'super' outside of a class."},
		{"super without superclass", `class A { m() { return super.m(); } }`, "Can't use 'super' in a class with no superclass."},
		{"self inheritance", `class A < A {}`, "A class can't inherit from itself."},
		{"own initializer", `{ var a = a; }`, "Can't read local variable in its own initializer."},
		{"duplicate local", `{ var a = 1; var a = 2; }`, "Already a variable with this name in this scope."},
		{"invalid assignment", `1 + 2 = 3;`, "Invalid assignment target."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, errOut, err := runSource(t, machine.Config{}, c.src)
			require.ErrorIs(t, err, machine.ErrCompile)
			assert.Equal(t, "", out)
			assert.Contains(t, errOut, c.wantMsg)
		})
	}
}

func TestLoops(t *testing.T) {
	t.Run("while", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			var i = 0;
			while (i < 3) { print i; i = i + 1; }
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "0\n1\n2\n", out)
	})

	t.Run("for with all clauses", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			for (var i = 0; i < 3; i = i + 1) print i;
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "0\n1\n2\n", out)
	})

	t.Run("for without condition", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			fun firstOver(limit) {
				for (var i = 0;; i = i + 1) {
					if (i > limit) return i;
				}
			}
			print firstOver(5);
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "6\n", out)
	})

	t.Run("nested shadowing scopes", func(t *testing.T) {
		out, errOut, err := runSource(t, machine.Config{}, `
			var a = "global";
			{
				var a = "outer";
				{
					var a = "inner";
					print a;
				}
				print a;
			}
			print a;
		`)
		require.NoError(t, err, errOut)
		assert.Equal(t, "inner\nouter\nglobal\n", out)
	})
}

// Programs with more than 255 distinct names and constants exercise the
// 24-bit operand encoding of the long opcode variants.
func TestLongOperands(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 300; i++ {
		fmt.Fprintf(&sb, "var v%d = %d;\n", i, i)
	}
	sb.WriteString("print v299;\n")
	sb.WriteString("v299 = v299 + 1; print v299;\n")

	out, errOut, err := runSource(t, machine.Config{}, sb.String())
	require.NoError(t, err, errOut)
	assert.Equal(t, "299\n300\n", out)
}

const gcHeavySource = `
fun makeCounter() {
	var i = 0;
	fun count() { i = i + 1; return i; }
	return count;
}
var c = makeCounter();
var s = "";
for (var i = 0; i < 20; i = i + 1) {
	s = s + "x";
	print c();
}
print s;
class Point {
	init(tag) { this.tag = tag; }
	label() { return "point:" + this.tag; }
}
print Point("a").label();
print Point("b").label();
`

// Output must not depend on collection frequency: collect-on-every-
// allocation stress mode has to produce byte-identical results.
func TestGCStressEquivalence(t *testing.T) {
	out1, errOut1, err1 := runSource(t, machine.Config{}, gcHeavySource)
	require.NoError(t, err1, errOut1)

	cfg := machine.Config{HeapConfig: types.HeapConfig{Stress: true}}
	out2, errOut2, err2 := runSource(t, cfg, gcHeavySource)
	require.NoError(t, err2, errOut2)

	assert.Equal(t, out1, out2)
}

// Interning must survive collections: string literals compiled after a
// forced collection still compare equal to surviving values, and global
// names still resolve.
func TestInternedIdentityAcrossCollections(t *testing.T) {
	var out, errb bytes.Buffer
	m := machine.New(machine.Config{}, mainer.Stdio{Stdout: &out, Stderr: &errb})

	require.NoError(t, m.Interpret(`var greeting = "hello";`), errb.String())
	m.Heap().Collect()
	require.NoError(t, m.Interpret(`print greeting == "hel" + "lo";`), errb.String())
	m.Heap().Collect()
	require.NoError(t, m.Interpret(`print greeting;`), errb.String())

	assert.Equal(t, "true\nhello\n", out.String())
}

func TestClosuresRetainedAcrossCollections(t *testing.T) {
	var out, errb bytes.Buffer
	m := machine.New(machine.Config{}, mainer.Stdio{Stdout: &out, Stderr: &errb})

	require.NoError(t, m.Interpret(`
		var next;
		{
			var n = 100;
			fun bump() { n = n + 1; return n; }
			next = bump;
		}
	`), errb.String())
	m.Heap().Collect()
	require.NoError(t, m.Interpret(`print next();`), errb.String())
	m.Heap().Collect()
	require.NoError(t, m.Interpret(`print next();`), errb.String())

	assert.Equal(t, "101\n102\n", out.String())
}

func TestRoundTripLaws(t *testing.T) {
	t.Run("double negation of booleans", func(t *testing.T) {
		for _, lit := range []string{"true", "false", "nil", "0", "1", `"s"`} {
			src := fmt.Sprintf(`print !!%s == !(!%s);`, lit, lit)
			out, errOut, err := runSource(t, machine.Config{}, src)
			require.NoError(t, err, errOut)
			assert.Equal(t, "true\n", out, lit)
		}
	})

	t.Run("double negation of numbers", func(t *testing.T) {
		for _, lit := range []string{"1", "2.5", "0.125", "1000000"} {
			src := fmt.Sprintf(`print -(-%s) == %s;`, lit, lit)
			out, errOut, err := runSource(t, machine.Config{}, src)
			require.NoError(t, err, errOut)
			assert.Equal(t, "true\n", out, lit)
		}
	})

	t.Run("equality is reflexive and consistent with inequality", func(t *testing.T) {
		for _, lit := range []string{"nil", "true", "false", "0", "1", `""`, `"s"`} {
			src := fmt.Sprintf(`print %s == %s; print !(%s != %s);`, lit, lit, lit, lit)
			out, errOut, err := runSource(t, machine.Config{}, src)
			require.NoError(t, err, errOut)
			assert.Equal(t, "true\ntrue\n", out, lit)
		}
	})
}

func TestNativeClock(t *testing.T) {
	out, errOut, err := runSource(t, machine.Config{}, `
		var t = clock();
		print t >= 0;
		print clock() >= t;
	`)
	require.NoError(t, err, errOut)
	assert.Equal(t, "true\ntrue\n", out)
}

func TestNativeReadln(t *testing.T) {
	var out, errb bytes.Buffer
	m := machine.New(machine.Config{}, mainer.Stdio{
		Stdin:  strings.NewReader("first line\nsecond\n"),
		Stdout: &out,
		Stderr: &errb,
	})

	err := m.Interpret(`
		print readln();
		print readln();
		print readln() == "";
	`)
	require.NoError(t, err, errb.String())
	assert.Equal(t, "first line\nsecond\ntrue\n", out.String())
}

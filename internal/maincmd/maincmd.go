// Package maincmd implements the lotus command: with a script path it
// compiles and runs the file, without arguments it starts a
// read-eval-print loop on stdin.
package maincmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mna/mainer"

	"github.com/mna/lotus/lang/machine"
)

const binName = "lotus"

// Exit codes of a script run, matching the traditional sysexits values.
const (
	ExitCompileError mainer.ExitCode = 65
	ExitRuntimeError mainer.ExitCode = 70
	ExitIOError      mainer.ExitCode = 74
)

// maxReplLine bounds the length of a single REPL input line.
const maxReplLine = 1024

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Bytecode compiler and virtual machine for the %[1]s programming
language. With a <path>, compiles and runs the script; without
arguments, starts an interactive session reading statements from
standard input until end of file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

The LOTUS_* environment variables tune the machine:
       LOTUS_GC_STRESS           Collect on every allocation.
       LOTUS_GC_LOG              Trace collections to stderr.
       LOTUS_GC_NEXT             Initial heap-growth trigger, in bytes.
       LOTUS_TRACE_EXEC          Disassemble instructions as they run.
       LOTUS_PRINT_CODE          Disassemble functions as they compile.

More information on the %[1]s repository:
       https://github.com/mna/lotus
`, binName)
)

// Cmd is the lotus command.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("at most one script path may be provided")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := machine.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment: %s\n", err)
		return mainer.Failure
	}

	m := machine.New(cfg, stdio)
	if len(c.args) == 1 {
		return runFile(m, stdio, c.args[0])
	}
	return repl(m, stdio)
}

func runFile(m *machine.Machine, stdio mainer.Stdio, path string) mainer.ExitCode {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "Could not read file %q.\n", path)
		return ExitIOError
	}

	switch err := m.Interpret(string(b)); {
	case errors.Is(err, machine.ErrCompile):
		return ExitCompileError
	case errors.Is(err, machine.ErrRuntime):
		return ExitRuntimeError
	}
	return mainer.Success
}

func repl(m *machine.Machine, stdio mainer.Stdio) mainer.ExitCode {
	// only prompt an interactive user
	prompt := false
	if f, ok := stdio.Stdin.(*os.File); ok {
		prompt = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	sc := bufio.NewScanner(stdio.Stdin)
	sc.Buffer(make([]byte, maxReplLine), maxReplLine)
	for {
		if prompt {
			fmt.Fprint(stdio.Stdout, "> ")
		}
		if !sc.Scan() {
			break
		}
		// errors were already reported, the session continues
		_ = m.Interpret(sc.Text())
	}
	if prompt {
		fmt.Fprintln(stdio.Stdout)
	}

	if err := sc.Err(); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitIOError
	}
	return mainer.Success
}

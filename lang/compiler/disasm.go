package compiler

import (
	"fmt"
	"strings"

	"github.com/mna/lotus/lang/types"
)

// Disassemble renders the whole chunk as pseudo-assembly, one instruction
// per line, for the print-code and trace debug modes and for tests.
func Disassemble(c *types.Chunk, name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = writeInstruction(&sb, c, offset)
	}
	return sb.String()
}

// DisassembleAt renders the single instruction at offset.
func DisassembleAt(c *types.Chunk, offset int) string {
	var sb strings.Builder
	writeInstruction(&sb, c, offset)
	return sb.String()
}

func writeInstruction(sb *strings.Builder, c *types.Chunk, offset int) int {
	fmt.Fprintf(sb, "%04d ", offset)
	if line := c.Line(offset); offset > 0 && line == c.Line(offset-1) {
		sb.WriteString("   | ")
	} else {
		fmt.Fprintf(sb, "%4d ", line)
	}

	op := Opcode(c.Code[offset])
	switch op {
	case Constant, DefineGlobal, GetGlobal, SetGlobal, Class,
		GetProperty, SetProperty, GetSuper, Method:
		return constantInstruction(sb, c, op, offset, 1)

	case ConstantLong, DefineGlobalLong, GetGlobalLong, SetGlobalLong,
		ClassLong, GetPropertyLong, SetPropertyLong, GetSuperLong, MethodLong:
		return constantInstruction(sb, c, op, offset, 3)

	case GetLocal, SetLocal, GetUpvalue, SetUpvalue, Call:
		slot := c.Code[offset+1]
		fmt.Fprintf(sb, "%-18s %4d\n", op, slot)
		return offset + 2

	case Jump, JumpIfFalse:
		return jumpInstruction(sb, c, op, 1, offset)
	case Loop:
		return jumpInstruction(sb, c, op, -1, offset)

	case Invoke:
		idx := int(c.Code[offset+1])
		argc := c.Code[offset+2]
		fmt.Fprintf(sb, "%-18s (%d args) %4d '%s'\n", op, argc, idx, c.Constants[idx])
		return offset + 3
	case InvokeLong:
		idx := longOperand(c, offset+1)
		argc := c.Code[offset+4]
		fmt.Fprintf(sb, "%-18s (%d args) %4d '%s'\n", op, argc, idx, c.Constants[idx])
		return offset + 5
	case SuperInvoke:
		idx := int(c.Code[offset+1])
		argc := c.Code[offset+2]
		fmt.Fprintf(sb, "%-18s (%d args) %4d '%s'\n", op, argc, idx, c.Constants[idx])
		return offset + 3
	case SuperInvokeLong:
		idx := longOperand(c, offset+1)
		argc := c.Code[offset+4]
		fmt.Fprintf(sb, "%-18s (%d args) %4d '%s'\n", op, argc, idx, c.Constants[idx])
		return offset + 5

	case MakeClosure:
		idx := int(c.Code[offset+1])
		fn := c.Constants[idx].(*types.Function)
		fmt.Fprintf(sb, "%-18s %4d %s\n", op, idx, fn)
		offset += 2
		for i := 0; i < fn.UpvalueCount; i++ {
			kind := "upvalue"
			if c.Code[offset] == 1 {
				kind = "local"
			}
			fmt.Fprintf(sb, "%04d      |                     %s %d\n",
				offset, kind, c.Code[offset+1])
			offset += 2
		}
		return offset

	case Nil, True, False, Pop, Equal, NotEqual, Greater, GreaterEqual,
		Less, LessEqual, Add, Subtract, Multiply, Divide, Not, Negate,
		Print, CloseUpvalue, Return, Inherit:
		fmt.Fprintf(sb, "%s\n", op)
		return offset + 1

	default:
		fmt.Fprintf(sb, "unknown opcode %d\n", byte(op))
		return offset + 1
	}
}

func constantInstruction(sb *strings.Builder, c *types.Chunk, op Opcode, offset, width int) int {
	var idx int
	if width == 1 {
		idx = int(c.Code[offset+1])
	} else {
		idx = longOperand(c, offset+1)
	}
	fmt.Fprintf(sb, "%-18s %4d '%s'\n", op, idx, c.Constants[idx])
	return offset + 1 + width
}

func jumpInstruction(sb *strings.Builder, c *types.Chunk, op Opcode, sign, offset int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	fmt.Fprintf(sb, "%-18s %4d -> %d\n", op, offset, offset+3+sign*jump)
	return offset + 3
}

func longOperand(c *types.Chunk, offset int) int {
	return int(c.Code[offset])<<16 | int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
}

package compiler

import "fmt"

// Opcode is a bytecode operation. Multi-byte operands are big-endian.
//
// "x ADD y" below is a stack picture describing the state of the value
// stack before and after execution of the instruction. OP<k> indicates an
// immediate operand that is an index into the chunk's constants pool;
// long variants widen that index to 24 bits and always follow their short
// form immediately, so the emitter can select op+1 when the operand does
// not fit a byte.
type Opcode uint8

const ( //nolint:revive
	Constant     Opcode = iota //            - Constant<k>     v
	ConstantLong               //            - ConstantLong<k> v

	Nil   //   - Nil   nil
	True  //   - True  true
	False //   - False false
	Pop   //   x Pop   -

	GetLocal //       - GetLocal<slot> v      (v stays in the slot)
	SetLocal //       v SetLocal<slot> v      (no pop)

	GetGlobal        //   - GetGlobal<k>        v    error if undefined
	GetGlobalLong    //   - GetGlobalLong<k>    v
	SetGlobal        //   v SetGlobal<k>        v    error if undefined, never creates
	SetGlobalLong    //   v SetGlobalLong<k>    v
	DefineGlobal     //   v DefineGlobal<k>     -
	DefineGlobalLong //   v DefineGlobalLong<k> -

	GetUpvalue //   - GetUpvalue<i> v
	SetUpvalue //   v SetUpvalue<i> v    (no pop)

	Equal        // x y Equal        bool
	NotEqual     // x y NotEqual     bool
	Greater      // x y Greater      bool   numbers only
	GreaterEqual // x y GreaterEqual bool   numbers only
	Less         // x y Less         bool   numbers only
	LessEqual    // x y LessEqual    bool   numbers only

	Add      // x y Add      x+y    numbers or strings
	Subtract // x y Subtract x-y    numbers only
	Multiply // x y Multiply x*y    numbers only
	Divide   // x y Divide   x/y    numbers only
	Not      //   x Not      bool
	Negate   //   x Negate   -x     number only

	Print //   x Print -

	Jump        //    - Jump<off>        -    ip += off
	JumpIfFalse // cond JumpIfFalse<off> cond ip += off if falsey; cond stays
	Loop        //    - Loop<off>        -    ip -= off

	Call //   f a1 .. an Call<n> result

	Invoke          // recv a1 .. an Invoke<k><n>          result
	InvokeLong      // recv a1 .. an InvokeLong<k><n>      result
	SuperInvoke     // this a1 .. an super SuperInvoke<k><n>     result
	SuperInvokeLong // this a1 .. an super SuperInvokeLong<k><n> result

	MakeClosure  //   - MakeClosure<k>(isLocal index)* closure
	CloseUpvalue //   x CloseUpvalue -      hoists x into its open upvalue
	Return       //   v Return       -      pops the frame

	Class     //   - Class<k>     class
	ClassLong //   - ClassLong<k> class

	GetProperty     //   recv GetProperty<k>     v      field, else bound method
	GetPropertyLong //   recv GetPropertyLong<k> v
	SetProperty     // recv v SetProperty<k>     v
	SetPropertyLong // recv v SetPropertyLong<k> v

	GetSuper     //   this super GetSuper<k>     bound
	GetSuperLong //   this super GetSuperLong<k> bound

	Inherit // super sub Inherit super  copies the method table

	Method     //   class closure Method<k>     class
	MethodLong //   class closure MethodLong<k> class

	maxOpcode
)

var opcodeNames = [...]string{
	Constant:         "constant",
	ConstantLong:     "constant_long",
	Nil:              "nil",
	True:             "true",
	False:            "false",
	Pop:              "pop",
	GetLocal:         "get_local",
	SetLocal:         "set_local",
	GetGlobal:        "get_global",
	GetGlobalLong:    "get_global_long",
	SetGlobal:        "set_global",
	SetGlobalLong:    "set_global_long",
	DefineGlobal:     "define_global",
	DefineGlobalLong: "define_global_long",
	GetUpvalue:       "get_upvalue",
	SetUpvalue:       "set_upvalue",
	Equal:            "equal",
	NotEqual:         "not_equal",
	Greater:          "greater",
	GreaterEqual:     "greater_equal",
	Less:             "less",
	LessEqual:        "less_equal",
	Add:              "add",
	Subtract:         "subtract",
	Multiply:         "multiply",
	Divide:           "divide",
	Not:              "not",
	Negate:           "negate",
	Print:            "print",
	Jump:             "jump",
	JumpIfFalse:      "jump_if_false",
	Loop:             "loop",
	Call:             "call",
	Invoke:           "invoke",
	InvokeLong:       "invoke_long",
	SuperInvoke:      "super_invoke",
	SuperInvokeLong:  "super_invoke_long",
	MakeClosure:      "closure",
	CloseUpvalue:     "close_upvalue",
	Return:           "return",
	Class:            "class",
	ClassLong:        "class_long",
	GetProperty:      "get_property",
	GetPropertyLong:  "get_property_long",
	SetProperty:      "set_property",
	SetPropertyLong:  "set_property_long",
	GetSuper:         "get_super",
	GetSuperLong:     "get_super_long",
	Inherit:          "inherit",
	Method:           "method",
	MethodLong:       "method_long",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

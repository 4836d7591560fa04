package dex

// Opcode enumerates the instruction families InstructionTranslator
// supports (spec.md §4.7.3). An instruction outside this set carries
// OpUnsupported; a method whose body contains one is found by the
// caller's pre-scan and stubbed rather than translated (spec.md §4.6).
type Opcode int

const (
	OpUnsupported Opcode = iota // pre-scan sentinel; never emitted by Reader

	OpNop

	OpConst     // const / const-4 / const-16 / const-high16 -> narrow literal
	OpConstWide // const-wide* -> wide literal
	OpConstString

	OpMove       // move / move-object (category carried by the register's last-known category)
	OpMoveWide
	OpMoveResult // move-result / move-result-wide / move-result-object

	OpReturnVoid
	OpReturn // return / return-wide / return-object, category from the returned register's last-known category

	OpInvokeVirtual
	OpInvokeSuper
	OpInvokeDirect
	OpInvokeStatic
	OpInvokeInterface

	OpIGet
	OpIPut
	OpSGet
	OpSPut

	OpNewInstance
	OpNewArray

	OpIfCmp  // eq/ne/lt/ge/gt/le, binary
	OpIfZero // eq/ne/lt/ge/gt/le against zero/null, unary

	OpGoto

	OpArith // add/sub/mul/div, int category

	OpThrow
	OpCheckCast
	OpInstanceOf

	OpAGet
	OpAPut
	OpArrayLength
)

// Cond is the comparison condition carried by OpIfCmp/OpIfZero.
type Cond int

const (
	CondEQ Cond = iota
	CondNE
	CondLT
	CondGE
	CondGT
	CondLE
)

// ArithOp is the arithmetic operation carried by OpArith.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithDiv
)

// ElemType tags the element type of array-element instructions
// (new-array/aget/aput), matching the host VM's primitive-type codes plus
// a reference marker.
type ElemType int

const (
	ElemInt ElemType = iota
	ElemLong
	ElemFloat
	ElemDouble
	ElemBoolean
	ElemByte
	ElemChar
	ElemShort
	ElemReference
)

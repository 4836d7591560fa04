package dex

// Instruction is one source instruction, decoded into the
// format-independent operand bundle InstructionTranslator consumes
// (spec.md §3, §4.5). Reader fills in only the fields relevant to Op;
// the rest stay at their zero value.
type Instruction struct {
	Op   Opcode
	Size int // length in 16-bit code units, used to track code-unit position across a method body

	// Register operands. Meaning depends on Op:
	//   move/move-wide:           Dest, SrcA
	//   const/const-wide/const-string: Dest
	//   return (non-void):        SrcA
	//   move-result*:             Dest
	//   if-cmp:                   SrcA, SrcB
	//   if-zero:                  SrcA
	//   iget/sget:                Dest, SrcA (SrcA is the receiver for iget, unused for sget)
	//   iput/sput:                SrcA (value), SrcB (receiver, iput only)
	//   new-instance:             Dest
	//   new-array:                Dest, SrcA (size)
	//   check-cast:               SrcA (read and rewritten in place)
	//   instance-of:              Dest, SrcA
	//   aget:                     Dest, SrcA (array), SrcB (index)
	//   aput:                     SrcA (value), SrcB (array), SrcC (index)
	//   array-length:             Dest, SrcA
	//   arith (non-2addr):        Dest, SrcA, SrcB (HasSrcB true)
	//   arith (2addr):            Dest (also first source), SrcA
	//   arith (lit):              Dest, SrcA, Literal (HasLiteral true)
	//   throw:                    SrcA
	Dest int
	SrcA int
	SrcB int
	SrcC int

	// HasSrcB/HasLiteral disambiguate the arith family's three register
	// shapes (spec.md §4.7.3: non-2addr, 2addr, lit8/lit16).
	HasSrcB    bool
	HasLiteral bool

	// Invoke operands: the callee plus up to five argument registers in
	// Args, or (when IsRange) a contiguous block described by RangeStart
	// and RangeCount. A non-static callee's receiver is Args[0] /
	// register RangeStart.
	Method    *Method
	Args      [5]int
	ArgCount  int
	IsRange   bool
	RangeStart int
	RangeCount int

	// Literal operands.
	Literal int64 // narrow (Const) or wide (ConstWide) immediate
	Str     string
	Type    string // type descriptor for new-instance/new-array/check-cast/instance-of; result type for move-result (reference when empty)
	Field   *Field

	// Control-flow operands.
	Cond         Cond
	BranchOffset int32 // code units, relative to this instruction's own start

	// Arithmetic / array-element operands.
	Arith ArithOp
	Elem  ElemType
}

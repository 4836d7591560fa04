package classfile

import (
	"fmt"

	"github.com/avast/dexjvm/dex"
)

// Label names a position in a method body that isn't known until every
// instruction before it has been emitted — exactly the two-pass problem
// spec.md §4.7.2 describes for branch targets.
type Label struct{ id int }

type branchFixup struct {
	opcodePos int // position of the branch opcode itself; offsets are relative to this
	operandAt int // position of the 2-byte operand to patch
	label     int
}

// CodeBuilder assembles one method body's bytecode and, per spec.md §4.6,
// computes max stack and max locals itself rather than trusting the
// translator's bookkeeping — the translator only decides instruction
// order and operand values.
type CodeBuilder struct {
	pool *pool

	code []byte

	depth    int
	maxStack int
	maxLocal int // one past the highest local slot touched

	nextLabel int
	labelPos  map[int]int
	fixups    []branchFixup

	err error
}

// NewCodeBuilder starts a method body that will draw constant pool entries
// from p.
func NewCodeBuilder(p *pool) *CodeBuilder {
	return &CodeBuilder{pool: p, labelPos: map[int]int{}}
}

func (b *CodeBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *CodeBuilder) push(words int) {
	b.depth += words
	if b.depth > b.maxStack {
		b.maxStack = b.depth
	}
}

func (b *CodeBuilder) pop(words int) {
	b.depth -= words
	if b.depth < 0 {
		b.fail(fmt.Errorf("classfile: stack underflow"))
		b.depth = 0
	}
}

func (b *CodeBuilder) touchLocal(slot, words int) {
	if top := slot + words; top > b.maxLocal {
		b.maxLocal = top
	}
}

func (b *CodeBuilder) byte(v byte)  { b.code = append(b.code, v) }
func (b *CodeBuilder) u16(v uint16) { b.code = append(b.code, byte(v>>8), byte(v)) }

// NewLabel allocates a label whose position is fixed later with Mark.
func (b *CodeBuilder) NewLabel() Label {
	id := b.nextLabel
	b.nextLabel++
	return Label{id: id}
}

// Mark fixes l's position to the current end of the emitted code, matching
// spec.md §4.7.2's "labels are emitted at their positions before the
// instruction that begins there."
func (b *CodeBuilder) Mark(l Label) {
	b.labelPos[l.id] = len(b.code)
}

func (b *CodeBuilder) Nop() { b.byte(opNop) }

// ConstZero pushes the category-typed zero/null literal used by stub
// bodies (spec.md §4.6).
func (b *CodeBuilder) ConstZero(cat dex.Category) {
	b.byte(constZeroOp(cat))
	b.push(width(cat))
}

// LoadIntLiteral emits the narrowest form of a 32-bit literal push.
func (b *CodeBuilder) LoadIntLiteral(v int64) {
	switch {
	case v == -1:
		b.byte(opIconstM1)
	case v >= 0 && v <= 5:
		b.byte(byte(opIconst0) + byte(v))
	case v >= -128 && v <= 127:
		b.byte(opBipush)
		b.byte(byte(int8(v)))
	case v >= -32768 && v <= 32767:
		b.byte(opSipush)
		b.u16(uint16(int16(v)))
	default:
		idx := b.pool.intIndex(int32(v))
		b.ldc(idx)
	}
	b.push(1)
}

func (b *CodeBuilder) ldc(idx uint16) {
	if idx <= 0xff {
		b.byte(opLdc)
		b.byte(byte(idx))
	} else {
		b.byte(opLdcW)
		b.u16(idx)
	}
}

// LoadLongLiteral pushes a 64-bit integer literal via the constant pool.
func (b *CodeBuilder) LoadLongLiteral(v int64) {
	idx := b.pool.longIndex(v)
	b.byte(opLdc2W)
	b.u16(idx)
	b.push(2)
}

// LoadFloatLiteral pushes a 32-bit float literal.
func (b *CodeBuilder) LoadFloatLiteral(v float32) {
	idx := b.pool.floatIndex(v)
	b.ldc(idx)
	b.push(1)
}

// LoadDoubleLiteral pushes a 64-bit float literal via the constant pool.
func (b *CodeBuilder) LoadDoubleLiteral(v float64) {
	idx := b.pool.doubleIndex(v)
	b.byte(opLdc2W)
	b.u16(idx)
	b.push(2)
}

// LoadString interns s and pushes a reference to it.
func (b *CodeBuilder) LoadString(s string) {
	idx := b.pool.stringIndex(s)
	b.ldc(idx)
	b.push(1)
}

// Load reads local slot into the stack, using the wide form for slots past
// the one-byte range.
func (b *CodeBuilder) Load(cat dex.Category, slot int) {
	b.localOp(loadOp(cat), slot)
	b.touchLocal(slot, width(cat))
	b.push(width(cat))
}

// Store writes the stack top into local slot.
func (b *CodeBuilder) Store(cat dex.Category, slot int) {
	b.localOp(storeOp(cat), slot)
	b.touchLocal(slot, width(cat))
	b.pop(width(cat))
}

func (b *CodeBuilder) localOp(op byte, slot int) {
	if slot <= 0xff {
		b.byte(op)
		b.byte(byte(slot))
		return
	}
	b.byte(0xc4) // WIDE
	b.byte(op)
	b.u16(uint16(slot))
}

// Return emits the category-typed return, or bare RETURN when hasValue is
// false.
func (b *CodeBuilder) Return(cat dex.Category, hasValue bool) {
	if !hasValue {
		b.byte(opReturn)
		return
	}
	b.pop(width(cat))
	b.byte(returnOp(cat))
}

// New emits NEW of a class internal name, pushing the (uninitialized)
// reference.
func (b *CodeBuilder) New(internalName string) {
	idx := b.pool.classIndex(internalName)
	b.byte(opNew)
	b.u16(idx)
	b.push(1)
}

// Dup duplicates the single-word stack top, per spec.md §4.7.3's
// new-instance emit strategy.
func (b *CodeBuilder) Dup() {
	b.byte(opDup)
	b.push(1)
}

// InvokeKind selects which host invoke opcode a call compiles to.
type InvokeKind int

const (
	InvokeVirtual InvokeKind = iota
	InvokeSpecial
	InvokeStatic
	InvokeInterface
)

// Invoke emits a method call. paramWidths gives the stack-word width of
// each parameter in order; hasReceiver adds an implicit leading objectref
// operand. retWidth is 0 for void.
func (b *CodeBuilder) Invoke(kind InvokeKind, owner, name, descriptor string, paramWidths []int, hasReceiver bool, retWidth int) {
	var idx uint16
	switch kind {
	case InvokeInterface:
		idx = b.pool.interfaceMethodrefIndex(owner, name, descriptor)
	default:
		idx = b.pool.methodrefIndex(owner, name, descriptor)
	}

	popped := 0
	if hasReceiver {
		popped++
	}
	for _, w := range paramWidths {
		popped += w
	}

	switch kind {
	case InvokeVirtual:
		b.byte(opInvokevirt)
		b.u16(idx)
	case InvokeSpecial:
		b.byte(opInvokespec)
		b.u16(idx)
	case InvokeStatic:
		b.byte(opInvokestat)
		b.u16(idx)
	case InvokeInterface:
		b.byte(opInvokeinter)
		b.u16(idx)
		b.byte(byte(popped)) // count, includes objectref; trailing 0 below
		b.byte(0)
	}

	b.pop(popped)
	if retWidth > 0 {
		b.push(retWidth)
	}
}

// GetField/PutField/GetStatic/PutStatic use width(cat) to size the stack
// effect of the field's declared category.
func (b *CodeBuilder) GetField(owner, name, descriptor string, cat dex.Category) {
	idx := b.pool.fieldrefIndex(owner, name, descriptor)
	b.byte(opGetfield)
	b.u16(idx)
	b.pop(1)
	b.push(width(cat))
}

func (b *CodeBuilder) PutField(owner, name, descriptor string, cat dex.Category) {
	idx := b.pool.fieldrefIndex(owner, name, descriptor)
	b.byte(opPutfield)
	b.u16(idx)
	b.pop(width(cat))
	b.pop(1)
}

func (b *CodeBuilder) GetStatic(owner, name, descriptor string, cat dex.Category) {
	idx := b.pool.fieldrefIndex(owner, name, descriptor)
	b.byte(opGetstatic)
	b.u16(idx)
	b.push(width(cat))
}

func (b *CodeBuilder) PutStatic(owner, name, descriptor string, cat dex.Category) {
	idx := b.pool.fieldrefIndex(owner, name, descriptor)
	b.byte(opPutstatic)
	b.u16(idx)
	b.pop(width(cat))
}

// NewArray allocates a primitive array of the given element type.
func (b *CodeBuilder) NewArray(elem dex.ElemType) {
	code, ok := primitiveArrayCode(elem)
	if !ok {
		b.fail(fmt.Errorf("classfile: NewArray called with non-primitive element type"))
		return
	}
	b.byte(opNewarray)
	b.byte(code)
	b.pop(1)
	b.push(1)
}

// ANewArray allocates a reference-typed array, internalOrDescriptor being
// either a plain internal class name or an already-bracketed array
// descriptor (spec.md §4.7.3's "array of array" case).
func (b *CodeBuilder) ANewArray(internalOrDescriptor string) {
	idx := b.pool.classIndex(internalOrDescriptor)
	b.byte(opAnewarray)
	b.u16(idx)
	b.pop(1)
	b.push(1)
}

func (b *CodeBuilder) ArrayLength() {
	b.byte(opArraylength)
	b.pop(1)
	b.push(1)
}

func (b *CodeBuilder) ArrayLoad(elem dex.ElemType) {
	b.byte(arrayLoadOp(elem))
	b.pop(2)
	b.push(arrayElemWidth(elem))
}

func (b *CodeBuilder) ArrayStore(elem dex.ElemType) {
	b.byte(arrayStoreOp(elem))
	b.pop(arrayElemWidth(elem))
	b.pop(2)
}

// Arith emits a 32-bit integer arithmetic op (spec.md §4.7.3 restricts the
// fixed opcode set to the int family).
func (b *CodeBuilder) Arith(op dex.ArithOp) {
	switch op {
	case dex.ArithAdd:
		b.byte(opIadd)
	case dex.ArithSub:
		b.byte(opIsub)
	case dex.ArithMul:
		b.byte(opImul)
	case dex.ArithDiv:
		b.byte(opIdiv)
	}
	b.pop(2)
	b.push(1)
}

// If emits a unary test-and-branch: an int-zero test when cat isn't
// reference, IFNULL/IFNONNULL otherwise (spec.md §4.7.1).
func (b *CodeBuilder) If(cond dex.Cond, cat dex.Category, target Label) {
	var op byte
	if cat == dex.CategoryReference {
		switch cond {
		case dex.CondEQ:
			op = opIfnull
		case dex.CondNE:
			op = opIfnonnull
		default:
			b.fail(fmt.Errorf("classfile: ordered comparison against a reference category"))
			return
		}
	} else {
		op = [...]byte{opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle}[cond]
	}
	b.pop(1)
	b.branch(op, target)
}

// IfCmp emits a binary compare-and-branch.
func (b *CodeBuilder) IfCmp(cond dex.Cond, cat dex.Category, target Label) {
	var op byte
	if cat == dex.CategoryReference {
		switch cond {
		case dex.CondEQ:
			op = opIfAcmpeq
		case dex.CondNE:
			op = opIfAcmpne
		default:
			b.fail(fmt.Errorf("classfile: ordered comparison against a reference category"))
			return
		}
	} else {
		op = [...]byte{opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple}[cond]
	}
	b.pop(2)
	b.branch(op, target)
}

// Goto emits an unconditional branch.
func (b *CodeBuilder) Goto(target Label) {
	b.branch(opGoto, target)
}

func (b *CodeBuilder) branch(op byte, target Label) {
	opcodePos := len(b.code)
	b.byte(op)
	operandAt := len(b.code)
	b.u16(0) // patched in Finish
	b.fixups = append(b.fixups, branchFixup{opcodePos: opcodePos, operandAt: operandAt, label: target.id})
}

func (b *CodeBuilder) CheckCast(internalOrDescriptor string) {
	idx := b.pool.classIndex(internalOrDescriptor)
	b.byte(opCheckcast)
	b.u16(idx)
	// net stack effect is zero: pops and re-pushes the same reference.
}

func (b *CodeBuilder) InstanceOf(internalOrDescriptor string) {
	idx := b.pool.classIndex(internalOrDescriptor)
	b.byte(opInstanceof)
	b.u16(idx)
	// pop reference, push int result: net zero width change.
}

func (b *CodeBuilder) Throw() {
	b.byte(opAthrow)
	b.pop(1)
}

// Finish resolves every branch label and returns the assembled code plus
// the computed max stack / max locals.
func (b *CodeBuilder) Finish() ([]byte, int, int, error) {
	if b.err != nil {
		return nil, 0, 0, b.err
	}
	for _, fx := range b.fixups {
		pos, ok := b.labelPos[fx.label]
		if !ok {
			return nil, 0, 0, fmt.Errorf("classfile: unresolved branch label")
		}
		rel := int16(pos - fx.opcodePos)
		b.code[fx.operandAt] = byte(uint16(rel) >> 8)
		b.code[fx.operandAt+1] = byte(uint16(rel))
	}
	return b.code, b.maxStack, b.maxLocal, nil
}

func primitiveArrayCode(e dex.ElemType) (byte, bool) {
	switch e {
	case dex.ElemBoolean:
		return atBoolean, true
	case dex.ElemChar:
		return atChar, true
	case dex.ElemFloat:
		return atFloat, true
	case dex.ElemDouble:
		return atDouble, true
	case dex.ElemByte:
		return atByte, true
	case dex.ElemShort:
		return atShort, true
	case dex.ElemInt:
		return atInt, true
	case dex.ElemLong:
		return atLong, true
	default:
		return 0, false
	}
}

func arrayElemWidth(e dex.ElemType) int {
	if e == dex.ElemLong || e == dex.ElemDouble {
		return 2
	}
	return 1
}

func arrayLoadOp(e dex.ElemType) byte {
	switch e {
	case dex.ElemLong:
		return opLaload
	case dex.ElemFloat:
		return opFaload
	case dex.ElemDouble:
		return opDaload
	case dex.ElemReference:
		return opAaload
	case dex.ElemByte, dex.ElemBoolean:
		return opBaload
	case dex.ElemChar:
		return opCaload
	case dex.ElemShort:
		return opSaload
	default:
		return opIaload
	}
}

func arrayStoreOp(e dex.ElemType) byte {
	switch e {
	case dex.ElemLong:
		return opLastore
	case dex.ElemFloat:
		return opFastore
	case dex.ElemDouble:
		return opDastore
	case dex.ElemReference:
		return opAastore
	case dex.ElemByte, dex.ElemBoolean:
		return opBastore
	case dex.ElemChar:
		return opCastore
	case dex.ElemShort:
		return opSastore
	default:
		return opIastore
	}
}

// Package translate implements InstructionTranslator: it rewrites one
// register-based method body into stack-machine bytecode on a
// classfile.CodeBuilder, handling the register-to-slot remapping and
// branch-target resolution the two machines' models don't share.
package translate

import (
	"fmt"

	"github.com/avast/dexjvm/classfile"
	"github.com/avast/dexjvm/dex"
)

// Translator is stateless between calls; each Translate call owns its own
// frame, matching the "short-lived, owning exactly one method emission at
// a time" lifetime.
type Translator struct{}

// New returns a ready-to-use Translator.
func New() *Translator { return &Translator{} }

// Translate lowers m's body onto cb. It assumes m.Impl is non-nil and
// contains only supported opcodes; ClassEmitter is responsible for both
// checks before calling in (spec.md §4.6).
func (t *Translator) Translate(m *dex.Method, cb *classfile.CodeBuilder) error {
	impl := m.Impl
	if impl == nil {
		return fmt.Errorf("translate: method has no implementation")
	}

	f := &frame{lastCat: map[int]dex.Category{}}
	f.paramSlots = hostParamSlots(m)

	if err := emitPrologue(m, impl, f, cb); err != nil {
		return err
	}

	positions := make([]int, len(impl.Instrs)+1)
	offset := 0
	for i, in := range impl.Instrs {
		positions[i] = offset
		offset += in.Size
	}
	positions[len(impl.Instrs)] = offset

	labels := map[int]classfile.Label{}
	getLabel := func(target int) classfile.Label {
		if l, ok := labels[target]; ok {
			return l
		}
		l := cb.NewLabel()
		labels[target] = l
		return l
	}

	for i, in := range impl.Instrs {
		if in.Op == dex.OpIfCmp || in.Op == dex.OpIfZero || in.Op == dex.OpGoto {
			getLabel(positions[i] + int(in.BranchOffset))
		}
	}

	for i, in := range impl.Instrs {
		if l, ok := labels[positions[i]]; ok {
			cb.Mark(l)
		}
		if err := emitOne(in, f, cb, positions[i], getLabel); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	return nil
}

// hostParamSlots computes P: the host VM's implicit parameter slot count
// at method entry (spec.md §4.7.1), receiver included for instance
// methods.
func hostParamSlots(m *dex.Method) int {
	p := 0
	if !m.IsStatic() {
		p += width(dex.CategoryReference)
	}
	for _, param := range m.Params {
		p += width(classfile.CategoryOf(param))
	}
	return p
}

// emitPrologue copies each incoming parameter from its host slot into the
// mapped region, per spec.md §4.7.1. Parameter registers are the last
// RegCount-InCount..RegCount-1 source registers.
func emitPrologue(m *dex.Method, impl *dex.MethodImpl, f *frame, cb *classfile.CodeBuilder) error {
	srcReg := impl.RegCount - impl.InCount
	if srcReg < 0 {
		return fmt.Errorf("translate: InCount %d exceeds RegCount %d", impl.InCount, impl.RegCount)
	}

	hostSlot := 0
	if !m.IsStatic() {
		cat := dex.CategoryReference
		cb.Load(cat, hostSlot)
		cb.Store(cat, f.slot(srcReg, cat))
		f.setCategory(srcReg, cat)
		hostSlot += width(cat)
		srcReg++
	}
	for _, param := range m.Params {
		cat := classfile.CategoryOf(param)
		cb.Load(cat, hostSlot)
		cb.Store(cat, f.slot(srcReg, cat))
		f.setCategory(srcReg, cat)
		hostSlot += width(cat)
		srcReg += width(cat)
	}
	return nil
}

func catOrDefault(descriptor string, def dex.Category) dex.Category {
	if descriptor == "" {
		return def
	}
	return classfile.CategoryOf(descriptor)
}

func elemCategory(e dex.ElemType) dex.Category {
	switch e {
	case dex.ElemLong:
		return dex.CategoryLong
	case dex.ElemDouble:
		return dex.CategoryDouble
	case dex.ElemReference:
		return dex.CategoryReference
	default:
		return dex.CategoryInt
	}
}

func registerList(in dex.Instruction) []int {
	if in.IsRange {
		regs := make([]int, in.RangeCount)
		for i := range regs {
			regs[i] = in.RangeStart + i
		}
		return regs
	}
	return append([]int(nil), in.Args[:in.ArgCount]...)
}

func invokeKind(op dex.Opcode) classfile.InvokeKind {
	switch op {
	case dex.OpInvokeSuper, dex.OpInvokeDirect:
		return classfile.InvokeSpecial
	case dex.OpInvokeStatic:
		return classfile.InvokeStatic
	case dex.OpInvokeInterface:
		return classfile.InvokeInterface
	default:
		return classfile.InvokeVirtual
	}
}

func emitOne(in dex.Instruction, f *frame, cb *classfile.CodeBuilder, pos int, getLabel func(int) classfile.Label) error {
	switch in.Op {
	case dex.OpNop:
		cb.Nop()

	case dex.OpConst:
		cb.LoadIntLiteral(in.Literal)
		cb.Store(dex.CategoryInt, f.slot(in.Dest, dex.CategoryInt))
		f.setCategory(in.Dest, dex.CategoryInt)

	case dex.OpConstWide:
		cb.LoadLongLiteral(in.Literal)
		cb.Store(dex.CategoryLong, f.slot(in.Dest, dex.CategoryLong))
		f.setCategory(in.Dest, dex.CategoryLong)

	case dex.OpConstString:
		cb.LoadString(in.Str)
		cb.Store(dex.CategoryReference, f.slot(in.Dest, dex.CategoryReference))
		f.setCategory(in.Dest, dex.CategoryReference)

	case dex.OpMove, dex.OpMoveWide:
		cat := f.categoryOf(in.SrcA)
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.Store(cat, f.slot(in.Dest, cat))
		f.setCategory(in.Dest, cat)

	case dex.OpMoveResult:
		cat := catOrDefault(in.Type, dex.CategoryReference)
		cb.Store(cat, f.slot(in.Dest, cat))
		f.setCategory(in.Dest, cat)

	case dex.OpReturnVoid:
		cb.Return(dex.CategoryInt, false)

	case dex.OpReturn:
		cat := f.categoryOf(in.SrcA)
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.Return(cat, true)

	case dex.OpInvokeVirtual, dex.OpInvokeSuper, dex.OpInvokeDirect, dex.OpInvokeStatic, dex.OpInvokeInterface:
		if in.Method == nil {
			return fmt.Errorf("invoke with no method reference")
		}
		kind := invokeKind(in.Op)
		hasReceiver := in.Op != dex.OpInvokeStatic
		regs := registerList(in)
		idx := 0
		if hasReceiver {
			if idx >= len(regs) {
				return fmt.Errorf("invoke missing receiver register")
			}
			cb.Load(dex.CategoryReference, f.slot(regs[idx], dex.CategoryReference))
			idx++
		}
		paramWidths := make([]int, 0, len(in.Method.Params))
		for _, param := range in.Method.Params {
			cat := catOrDefault(param, dex.CategoryInt)
			if idx >= len(regs) {
				return fmt.Errorf("invoke missing argument register")
			}
			cb.Load(cat, f.slot(regs[idx], cat))
			idx += width(cat)
			paramWidths = append(paramWidths, width(cat))
		}
		retWidth := 0
		if in.Method.Return != "" && in.Method.Return != "V" {
			retWidth = width(catOrDefault(in.Method.Return, dex.CategoryInt))
		}
		owner := classfile.InternalName(in.Method.Owner)
		descriptor := classfile.MethodDescriptor(in.Method.Params, in.Method.Return)
		cb.Invoke(kind, owner, in.Method.Name, descriptor, paramWidths, hasReceiver, retWidth)

	case dex.OpIGet:
		if in.Field == nil {
			return fmt.Errorf("iget with no field reference")
		}
		cat := catOrDefault(in.Field.Type, dex.CategoryInt)
		cb.Load(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		cb.GetField(classfile.InternalName(in.Field.Owner), in.Field.Name, in.Field.Type, cat)
		cb.Store(cat, f.slot(in.Dest, cat))
		f.setCategory(in.Dest, cat)

	case dex.OpIPut:
		if in.Field == nil {
			return fmt.Errorf("iput with no field reference")
		}
		cat := catOrDefault(in.Field.Type, dex.CategoryInt)
		cb.Load(dex.CategoryReference, f.slot(in.SrcB, dex.CategoryReference))
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.PutField(classfile.InternalName(in.Field.Owner), in.Field.Name, in.Field.Type, cat)

	case dex.OpSGet:
		if in.Field == nil {
			return fmt.Errorf("sget with no field reference")
		}
		cat := catOrDefault(in.Field.Type, dex.CategoryInt)
		cb.GetStatic(classfile.InternalName(in.Field.Owner), in.Field.Name, in.Field.Type, cat)
		cb.Store(cat, f.slot(in.Dest, cat))
		f.setCategory(in.Dest, cat)

	case dex.OpSPut:
		if in.Field == nil {
			return fmt.Errorf("sput with no field reference")
		}
		cat := catOrDefault(in.Field.Type, dex.CategoryInt)
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.PutStatic(classfile.InternalName(in.Field.Owner), in.Field.Name, in.Field.Type, cat)

	case dex.OpNewInstance:
		cb.New(classfile.InternalName(in.Type))
		cb.Dup()
		cb.Store(dex.CategoryReference, f.slot(in.Dest, dex.CategoryReference))
		f.setCategory(in.Dest, dex.CategoryReference)

	case dex.OpNewArray:
		cb.Load(dex.CategoryInt, f.slot(in.SrcA, dex.CategoryInt))
		if in.Elem == dex.ElemReference {
			cb.ANewArray(classfile.InternalName(in.Type))
		} else {
			cb.NewArray(in.Elem)
		}
		cb.Store(dex.CategoryReference, f.slot(in.Dest, dex.CategoryReference))
		f.setCategory(in.Dest, dex.CategoryReference)

	case dex.OpIfCmp:
		cat := effectiveCompareCategory(in.Cond, f.categoryOf(in.SrcA))
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.Load(cat, f.slot(in.SrcB, cat))
		cb.IfCmp(in.Cond, cat, getLabel(pos+int(in.BranchOffset)))

	case dex.OpIfZero:
		cat := effectiveCompareCategory(in.Cond, f.categoryOf(in.SrcA))
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.If(in.Cond, cat, getLabel(pos+int(in.BranchOffset)))

	case dex.OpGoto:
		cb.Goto(getLabel(pos + int(in.BranchOffset)))

	case dex.OpArith:
		switch {
		case in.HasLiteral:
			cb.Load(dex.CategoryInt, f.slot(in.SrcA, dex.CategoryInt))
			cb.LoadIntLiteral(in.Literal)
		case in.HasSrcB:
			cb.Load(dex.CategoryInt, f.slot(in.SrcA, dex.CategoryInt))
			cb.Load(dex.CategoryInt, f.slot(in.SrcB, dex.CategoryInt))
		default: // 2addr: Dest doubles as the first source
			cb.Load(dex.CategoryInt, f.slot(in.Dest, dex.CategoryInt))
			cb.Load(dex.CategoryInt, f.slot(in.SrcA, dex.CategoryInt))
		}
		cb.Arith(in.Arith)
		cb.Store(dex.CategoryInt, f.slot(in.Dest, dex.CategoryInt))
		f.setCategory(in.Dest, dex.CategoryInt)

	case dex.OpThrow:
		cb.Load(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		cb.Throw()

	case dex.OpCheckCast:
		cb.Load(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		cb.CheckCast(classfile.InternalName(in.Type))
		cb.Store(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		f.setCategory(in.SrcA, dex.CategoryReference)

	case dex.OpInstanceOf:
		cb.Load(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		cb.InstanceOf(classfile.InternalName(in.Type))
		cb.Store(dex.CategoryInt, f.slot(in.Dest, dex.CategoryInt))
		f.setCategory(in.Dest, dex.CategoryInt)

	case dex.OpAGet:
		cat := elemCategory(in.Elem)
		cb.Load(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		cb.Load(dex.CategoryInt, f.slot(in.SrcB, dex.CategoryInt))
		cb.ArrayLoad(in.Elem)
		cb.Store(cat, f.slot(in.Dest, cat))
		f.setCategory(in.Dest, cat)

	case dex.OpAPut:
		cat := elemCategory(in.Elem)
		cb.Load(dex.CategoryReference, f.slot(in.SrcB, dex.CategoryReference))
		cb.Load(dex.CategoryInt, f.slot(in.SrcC, dex.CategoryInt))
		cb.Load(cat, f.slot(in.SrcA, cat))
		cb.ArrayStore(in.Elem)

	case dex.OpArrayLength:
		cb.Load(dex.CategoryReference, f.slot(in.SrcA, dex.CategoryReference))
		cb.ArrayLength()
		cb.Store(dex.CategoryInt, f.slot(in.Dest, dex.CategoryInt))
		f.setCategory(in.Dest, dex.CategoryInt)

	default:
		return fmt.Errorf("unsupported opcode %v", in.Op)
	}
	return nil
}

// effectiveCompareCategory implements spec.md §4.7.1: eq/ne dispatch on
// the register's last-known category; lt/ge/gt/le are always integer.
func effectiveCompareCategory(cond dex.Cond, lastKnown dex.Category) dex.Category {
	if cond == dex.CondEQ || cond == dex.CondNE {
		return lastKnown
	}
	return dex.CategoryInt
}

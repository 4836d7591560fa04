package classfile

import (
	"fmt"

	"github.com/avast/dexjvm/dex"
)

// MethodTranslator is the InstructionTranslator contract as ClassEmitter
// needs it: translate one method's body onto cb, or fail. Kept as an
// interface here (rather than importing the translate package directly)
// so classfile stays a leaf package — translate depends on classfile's
// CodeBuilder, not the other way around.
type MethodTranslator interface {
	Translate(m *dex.Method, cb *CodeBuilder) error
}

// EmitClass builds one destination class file for src, delegating every
// method body with a translatable implementation to translator. Methods
// with no implementation (native/abstract) are emitted without a Code
// attribute; a method whose implementation uses an opcode outside the
// translator's fixed set gets a stub body (spec.md §4.6). Per-method
// translation failures are recovered as stubs and reported; they never
// abort the class.
func EmitClass(src *dex.Class, translator MethodTranslator) ([]byte, []error) {
	var errs []error

	cb := NewClassBuilder(src.AccessFlags, InternalName(src.Name), InternalName(src.Super), internalNames(src.Interfaces))

	for _, f := range src.Fields {
		cb.AddField(0, f.Name, f.Type)
	}

	for _, m := range src.Methods {
		descriptor := MethodDescriptor(m.Params, m.Return)

		if m.Impl == nil {
			cb.AddMethodWithoutCode(m.AccessFlags, m.Name, descriptor)
			continue
		}

		if hasUnsupportedOpcode(m.Impl) {
			emitStub(cb, m, descriptor)
			continue
		}

		mcb := NewCodeBuilder(cb.pool)
		if err := translator.Translate(m, mcb); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", m.Name, descriptor, err))
			emitStub(cb, m, descriptor)
			continue
		}
		code, maxStack, maxLocals, err := mcb.Finish()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", m.Name, descriptor, err))
			emitStub(cb, m, descriptor)
			continue
		}
		cb.AddMethodWithCode(m.AccessFlags, m.Name, descriptor, code, maxStack, maxLocals)
	}

	return cb.Bytes(), errs
}

func emitStub(cb *ClassBuilder, m *dex.Method, descriptor string) {
	scb := NewCodeBuilder(cb.pool)
	retCat := CategoryOf(m.Return)
	if m.Return == "V" {
		scb.Return(retCat, false)
	} else {
		scb.ConstZero(retCat)
		scb.Return(retCat, true)
	}
	code, maxStack, maxLocals, err := scb.Finish()
	if err != nil {
		// A stub body can't fail; if it somehow does, emit the bare
		// void-return form so the class still links.
		code, maxStack, maxLocals = []byte{opReturn}, 0, 0
	}
	cb.AddMethodWithCode(m.AccessFlags, m.Name, descriptor, code, maxStack, maxLocals)
}

func hasUnsupportedOpcode(impl *dex.MethodImpl) bool {
	for _, in := range impl.Instrs {
		if in.Op == dex.OpUnsupported {
			return true
		}
	}
	return false
}

func internalNames(descs []string) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = InternalName(d)
	}
	return out
}

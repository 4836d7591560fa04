package classfile_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/avast/dexjvm/classfile"
	"github.com/avast/dexjvm/dex"
)

// failingTranslator always fails, to exercise EmitClass's stub fallback.
type failingTranslator struct{}

func (failingTranslator) Translate(*dex.Method, *classfile.CodeBuilder) error {
	return errors.New("boom")
}

// passthroughTranslator emits a trivial void return for every method.
type passthroughTranslator struct{}

func (passthroughTranslator) Translate(m *dex.Method, cb *classfile.CodeBuilder) error {
	cb.Return(dex.CategoryInt, false)
	return nil
}

func TestEmitClassHeaderAndVersion(t *testing.T) {
	src := &dex.Class{Name: "Lcom/example/Foo;", Super: "Ljava/lang/Object;"}
	out, errs := classfile.EmitClass(src, passthroughTranslator{})
	if len(errs) != 0 {
		t.Fatalf("EmitClass errors: %v", errs)
	}
	if len(out) < 10 {
		t.Fatalf("class file too short: %d bytes", len(out))
	}
	magic := binary.BigEndian.Uint32(out[0:4])
	if magic != 0xCAFEBABE {
		t.Errorf("magic = %#x, want 0xCAFEBABE", magic)
	}
	major := binary.BigEndian.Uint16(out[6:8])
	if major != 52 {
		t.Errorf("major version = %d, want 52", major)
	}
}

func TestEmitClassFallsBackToStubOnTranslateError(t *testing.T) {
	src := &dex.Class{
		Name:  "Lcom/example/Foo;",
		Super: "Ljava/lang/Object;",
		Methods: []*dex.Method{
			{
				Name:   "compute",
				Return: "I",
				Impl:   &dex.MethodImpl{RegCount: 1, InCount: 0, Instrs: []dex.Instruction{{Op: dex.OpReturn}}},
			},
		},
	}
	out, errs := classfile.EmitClass(src, failingTranslator{})
	if len(errs) != 1 {
		t.Fatalf("EmitClass errors = %d, want 1", len(errs))
	}
	if len(out) == 0 {
		t.Fatal("EmitClass produced no bytes despite recovering via a stub")
	}
}

func TestEmitClassStubsUnsupportedOpcodeWithoutCallingTranslator(t *testing.T) {
	src := &dex.Class{
		Name:  "Lcom/example/Foo;",
		Super: "Ljava/lang/Object;",
		Methods: []*dex.Method{
			{
				Name:   "weird",
				Return: "Ljava/lang/String;",
				Impl:   &dex.MethodImpl{RegCount: 1, Instrs: []dex.Instruction{{Op: dex.OpUnsupported}}},
			},
		},
	}
	calls := 0
	tr := translatorFunc(func(*dex.Method, *classfile.CodeBuilder) error {
		calls++
		return nil
	})
	out, errs := classfile.EmitClass(src, tr)
	if calls != 0 {
		t.Errorf("translator was called %d times for a method with an unsupported opcode, want 0", calls)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if len(out) == 0 {
		t.Fatal("EmitClass produced no bytes")
	}
}

func TestEmitClassKeepsNativeMethodWithoutCode(t *testing.T) {
	src := &dex.Class{
		Name:  "Lcom/example/Foo;",
		Super: "Ljava/lang/Object;",
		Methods: []*dex.Method{
			{Name: "native0", Return: "V", AccessFlags: dex.AccNative},
		},
	}
	out, errs := classfile.EmitClass(src, passthroughTranslator{})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(out) == 0 {
		t.Fatal("EmitClass produced no bytes")
	}
}

type translatorFunc func(*dex.Method, *classfile.CodeBuilder) error

func (f translatorFunc) Translate(m *dex.Method, cb *classfile.CodeBuilder) error { return f(m, cb) }

package classfile_test

import (
	"testing"

	"github.com/avast/dexjvm/classfile"
	"github.com/avast/dexjvm/dex"
)

func TestInternalName(t *testing.T) {
	tests := map[string]string{
		"Lcom/example/Foo;": "com/example/Foo",
		"[I":                 "[I",
		"I":                  "I",
	}
	for in, want := range tests {
		if got := classfile.InternalName(in); got != want {
			t.Errorf("InternalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMethodDescriptor(t *testing.T) {
	got := classfile.MethodDescriptor([]string{"I", "Ljava/lang/String;"}, "Z")
	want := "(ILjava/lang/String;)Z"
	if got != want {
		t.Errorf("MethodDescriptor() = %q, want %q", got, want)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := map[string]dex.Category{
		"J":                  dex.CategoryLong,
		"F":                  dex.CategoryFloat,
		"D":                  dex.CategoryDouble,
		"Lcom/example/Foo;":  dex.CategoryReference,
		"[I":                 dex.CategoryReference,
		"I":                  dex.CategoryInt,
		"Z":                  dex.CategoryInt,
		"":                   dex.CategoryReference,
	}
	for d, want := range tests {
		if got := classfile.CategoryOf(d); got != want {
			t.Errorf("CategoryOf(%q) = %v, want %v", d, got, want)
		}
	}
}

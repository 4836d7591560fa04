package dex

import "fmt"

// Reader iterates classes, methods, and fields already decoded into the
// Class/Method/Field shapes above. Spec.md §4.5 treats the container
// format (how classes are actually packed into the compiled bytecode
// file) as an external concern; Reader's job here starts one level in,
// validating the invariants InstructionTranslator depends on before
// handing a class off.
type Reader struct {
	classes []*Class
}

// NewReader validates classes and wraps them for iteration. Validation
// failures are returned rather than silently dropping the offending
// class, since a malformed RegCount/InCount pairing would otherwise
// surface much later as an out-of-range local slot deep in translation.
func NewReader(classes []*Class) (*Reader, error) {
	for _, c := range classes {
		for _, m := range c.Methods {
			if m.Impl == nil {
				continue
			}
			if m.Impl.InCount > m.Impl.RegCount {
				return nil, fmt.Errorf("dex: %s%s: in-count %d exceeds register count %d",
					m.Name, MethodDescriptorOf(m), m.Impl.InCount, m.Impl.RegCount)
			}
		}
	}
	return &Reader{classes: classes}, nil
}

// Classes returns every class in container order.
func (r *Reader) Classes() []*Class {
	return r.classes
}

// MethodDescriptorOf renders m's descriptor in the shared alphabet, for
// diagnostics that need to name a method before it has been translated.
func MethodDescriptorOf(m *Method) string {
	s := "("
	for _, p := range m.Params {
		s += p
	}
	return s + ")" + m.Return
}

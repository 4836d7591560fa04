package classfile

import "strings"

// InternalName converts a source type descriptor to the host's
// slash-separated internal form: "Lpkg/Name;" -> "pkg/Name". Array and
// primitive descriptors pass through unchanged (spec.md §4.6).
func InternalName(descriptor string) string {
	if strings.HasPrefix(descriptor, "L") && strings.HasSuffix(descriptor, ";") {
		return descriptor[1 : len(descriptor)-1]
	}
	return descriptor
}

// MethodDescriptor rebuilds "(params)return" from the descriptor alphabet
// shared by source and host (spec.md §4.6, §4.7.3).
func MethodDescriptor(params []string, ret string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p)
	}
	b.WriteByte(')')
	b.WriteString(ret)
	return b.String()
}

// CategoryOf classifies a type descriptor into one of the five local-slot
// categories the translator maps registers into (spec.md §4.7.1).
func CategoryOf(descriptor string) category {
	if descriptor == "" {
		return catReference
	}
	switch descriptor[0] {
	case 'J':
		return catLong
	case 'F':
		return catFloat
	case 'D':
		return catDouble
	case 'L', '[':
		return catReference
	default: // Z B C S I
		return catInt
	}
}

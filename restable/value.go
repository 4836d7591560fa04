package restable

import "fmt"

// ValueKind tags the closed set of entry value alternatives spec.md §3
// defines for resource table entries: string, decimal int, boolean, ARGB
// color, dimension, resource reference, complex/bag, or null.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueString
	ValueInt
	ValueBool
	ValueColor
	ValueDimension
	ValueReference
	ValueComplex
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueString:
		return "string"
	case ValueInt:
		return "int"
	case ValueBool:
		return "bool"
	case ValueColor:
		return "color"
	case ValueDimension:
		return "dimension"
	case ValueReference:
		return "reference"
	case ValueComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// Value is the decoded, tagged form of one entry's value.
type Value struct {
	Kind ValueKind

	Str     string            // ValueString
	Int     int32             // ValueInt, ValueReference (resource id)
	Bool    bool              // ValueBool
	Color   uint32            // ValueColor, ARGB packed
	Dim     float32           // ValueDimension, mantissa/scale
	Unit    string            // ValueDimension unit tag
	Complex map[string]*Value // ValueComplex: hex(key) -> value, see spec.md §9 open question
	Parent  uint32            // ValueComplex: parentRef

	RawData uint32
}

// String renders the value for diagnostic display; it does not dereference
// references (spec.md §1 Non-goals: the table parser never resolves
// reference chains).
func (v *Value) String() string {
	if v == nil {
		return ""
	}
	switch v.Kind {
	case ValueNull:
		return ""
	case ValueString:
		return v.Str
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueColor:
		return fmt.Sprintf("#%08x", v.Color)
	case ValueDimension:
		return fmt.Sprintf("%g%s", v.Dim, v.Unit)
	case ValueReference:
		return fmt.Sprintf("@%x", v.Int)
	case ValueComplex:
		return fmt.Sprintf("{bag of %d}", len(v.Complex))
	default:
		return ""
	}
}

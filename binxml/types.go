package binxml

import "fmt"

// TextElementName is the sentinel element name used for text nodes, which
// the parser represents as synthetic children rather than a distinct node
// kind so callers can walk a single tree shape.
const TextElementName = "#text"

// ValueKind tags the closed set of attribute/entry value alternatives
// spec.md §3 and §4.2 define. It is a sum type: every switch over Kind in
// this module is meant to be exhaustive.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueReference
	ValueAttributeRef
	ValueString
	ValueFloat
	ValueDimension
	ValueFraction
	ValueIntDec
	ValueIntHex
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueReference:
		return "reference"
	case ValueAttributeRef:
		return "attribute"
	case ValueString:
		return "string"
	case ValueFloat:
		return "float"
	case ValueDimension:
		return "dimension"
	case ValueFraction:
		return "fraction"
	case ValueIntDec:
		return "int"
	case ValueIntHex:
		return "hex-int"
	case ValueBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is the typed, decoded form of an attribute value, tagged by Kind.
// Only the fields relevant to Kind are meaningful; RawData always carries
// the original 32-bit payload for diagnostics.
type Value struct {
	Kind ValueKind

	Str       string  // ValueString
	Int       int32   // ValueIntDec, ValueIntHex, ValueReference, ValueAttributeRef (raw id)
	Float     float32 // ValueFloat, mantissa of ValueDimension/ValueFraction
	Unit      string  // ValueDimension: "px"/"dp"/"sp"/"pt"/"in"/"mm"
	IsPercent bool    // ValueFraction: true for "%p", false for "%"
	Bool      bool    // ValueBool
	RawData   uint32
}

// Rendered returns the unparsed string representation spec.md §3 calls
// "original unparsed string, for diagnostic fidelity" when an attribute
// doesn't carry a distinct raw string (most typed values don't).
func (v Value) Rendered() string {
	switch v.Kind {
	case ValueNull:
		return ""
	case ValueReference:
		return fmt.Sprintf("@%x", v.RawData)
	case ValueAttributeRef:
		return fmt.Sprintf("?%x", v.RawData)
	case ValueString:
		return v.Str
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueDimension:
		return fmt.Sprintf("%g%s", v.Float, v.Unit)
	case ValueFraction:
		suffix := "%"
		if v.IsPercent {
			suffix = "%p"
		}
		return fmt.Sprintf("%g%s", v.Float, suffix)
	case ValueIntDec:
		return fmt.Sprintf("%d", v.Int)
	case ValueIntHex:
		return fmt.Sprintf("0x%x", v.RawData)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return ""
	}
}

// Attribute is one typed name/value pair on an Element.
type Attribute struct {
	Name      string
	Namespace string
	Value     Value
	Raw       string  // original unparsed string form, independent of Value.Rendered
	ResID     *uint32 // resource id from the id table, when present
}

// Element is one node of the parsed XML tree. Text nodes appear as children
// named TextElementName with their decoded text in Text.
type Element struct {
	Name      string
	Namespace string
	Attrs     []Attribute
	Children  []*Element
	Parent    *Element
	Text      string // only meaningful when Name == TextElementName
}

// Attr looks up an unprefixed attribute by name, returning ok=false if
// absent. Namespace is ignored, matching how ManifestInterpreter reads
// manifest attributes (spec.md §4.8 never disambiguates by namespace).
func (e *Element) Attr(name string) (Attribute, bool) {
	if e == nil {
		return Attribute{}, false
	}
	for _, a := range e.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttrString is a convenience wrapper returning an attribute's rendered
// string value, or "" when absent.
func (e *Element) AttrString(name string) string {
	a, ok := e.Attr(name)
	if !ok {
		return ""
	}
	if a.Value.Kind == ValueString {
		return a.Value.Str
	}
	return a.Value.Rendered()
}

// ChildrenNamed returns the direct child elements whose Name equals name,
// in document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Document is the parsed form of one compiled-XML file: an optional root
// (nil when the file was malformed before any start-element was seen) and
// the namespace-prefix table accumulated across the whole chunk stream.
type Document struct {
	Root       *Element
	Namespaces map[string]string // prefix -> uri
}

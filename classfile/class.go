package classfile

// classFileMajor pins the destination version to a known stack-VM release
// (spec.md §4.6, "version pinned to a known stack-VM version").
const (
	classFileMajor = 52 // Java SE 8
	classFileMinor = 0
)

type fieldEntry struct {
	accessFlags uint32
	nameIdx     uint16
	descIdx     uint16
}

type methodEntry struct {
	accessFlags uint32
	nameIdx     uint16
	descIdx     uint16
	hasCode     bool
	code        []byte
	maxStack    int
	maxLocals   int
}

// ClassBuilder assembles one destination class: header, constant pool,
// fields, and methods. Callers add fields and methods in source order and
// finish with Bytes.
type ClassBuilder struct {
	pool *pool

	accessFlags uint32
	thisIdx     uint16
	superIdx    uint16
	interfaces  []uint16

	fields  []fieldEntry
	methods []methodEntry
}

// NewClassBuilder starts a class named thisInternalName (already
// slash-separated) extending superInternalName ("" for none, i.e.
// java/lang/Object-less interfaces or Object itself).
func NewClassBuilder(accessFlags uint32, thisInternalName, superInternalName string, interfaceNames []string) *ClassBuilder {
	p := newPool()
	cb := &ClassBuilder{
		pool:        p,
		accessFlags: accessFlags,
		thisIdx:     p.classIndex(thisInternalName),
	}
	if superInternalName != "" {
		cb.superIdx = p.classIndex(superInternalName)
	}
	for _, i := range interfaceNames {
		cb.interfaces = append(cb.interfaces, p.classIndex(i))
	}
	return cb
}

// Pool exposes the class's constant pool so a method's CodeBuilder can
// share it (every method's constants land in one shared class-wide pool).
func (cb *ClassBuilder) Pool() *pool { return cb.pool }

// AddField appends a field in declaration order.
func (cb *ClassBuilder) AddField(accessFlags uint32, name, descriptor string) {
	cb.fields = append(cb.fields, fieldEntry{
		accessFlags: accessFlags,
		nameIdx:     cb.pool.utf8Index(name),
		descIdx:     cb.pool.utf8Index(descriptor),
	})
}

// AddMethodWithCode appends a method carrying a Code attribute.
func (cb *ClassBuilder) AddMethodWithCode(accessFlags uint32, name, descriptor string, code []byte, maxStack, maxLocals int) {
	cb.methods = append(cb.methods, methodEntry{
		accessFlags: accessFlags,
		nameIdx:     cb.pool.utf8Index(name),
		descIdx:     cb.pool.utf8Index(descriptor),
		hasCode:     true,
		code:        code,
		maxStack:    maxStack,
		maxLocals:   maxLocals,
	})
}

// AddMethodWithoutCode appends a native or abstract method (spec.md §4.6,
// "native and abstract methods emit no body").
func (cb *ClassBuilder) AddMethodWithoutCode(accessFlags uint32, name, descriptor string) {
	cb.methods = append(cb.methods, methodEntry{
		accessFlags: accessFlags,
		nameIdx:     cb.pool.utf8Index(name),
		descIdx:     cb.pool.utf8Index(descriptor),
	})
}

// Bytes assembles the final class file.
func (cb *ClassBuilder) Bytes() []byte {
	codeNameIdx := cb.pool.utf8Index("Code")

	var out []byte
	out = append(out, u32(0xCAFEBABE)...)
	out = append(out, u16(classFileMinor)...)
	out = append(out, u16(classFileMajor)...)
	out = append(out, u16(cb.pool.count())...)
	out = append(out, cb.pool.encode()...)
	out = append(out, u16(uint16(cb.accessFlags))...)
	out = append(out, u16(cb.thisIdx)...)
	out = append(out, u16(cb.superIdx)...)

	out = append(out, u16(uint16(len(cb.interfaces)))...)
	for _, i := range cb.interfaces {
		out = append(out, u16(i)...)
	}

	out = append(out, u16(uint16(len(cb.fields)))...)
	for _, f := range cb.fields {
		out = append(out, u16(uint16(f.accessFlags))...)
		out = append(out, u16(f.nameIdx)...)
		out = append(out, u16(f.descIdx)...)
		out = append(out, u16(0)...) // attributes_count
	}

	out = append(out, u16(uint16(len(cb.methods)))...)
	for _, m := range cb.methods {
		out = append(out, u16(uint16(m.accessFlags))...)
		out = append(out, u16(m.nameIdx)...)
		out = append(out, u16(m.descIdx)...)
		if !m.hasCode {
			out = append(out, u16(0)...)
			continue
		}
		out = append(out, u16(1)...) // attributes_count: Code only
		out = append(out, u16(codeNameIdx)...)
		attrLen := 2 + 2 + 4 + len(m.code) + 2 + 2
		out = append(out, u32(uint32(attrLen))...)
		out = append(out, u16(uint16(m.maxStack))...)
		out = append(out, u16(uint16(m.maxLocals))...)
		out = append(out, u32(uint32(len(m.code)))...)
		out = append(out, m.code...)
		out = append(out, u16(0)...) // exception_table_length
		out = append(out, u16(0)...) // attributes_count
	}

	out = append(out, u16(0)...) // class attributes_count
	return out
}

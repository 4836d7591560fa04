package classfile

// Constant pool tag values (JVM spec §4.4).
const (
	tagUTF8              = 1
	tagInteger           = 3
	tagFloat             = 4
	tagLong              = 5
	tagDouble            = 6
	tagClass             = 7
	tagString            = 8
	tagFieldref          = 9
	tagMethodref         = 10
	tagInterfaceMethodref = 11
	tagNameAndType       = 12
)

// pool builds a class file's constant pool, deduplicating every entry kind
// it is asked for. Indices are assigned on first insertion and are stable
// for the builder's lifetime, matching how the teacher's stringTable
// memoizes decoded strings by offset rather than re-encoding them.
type pool struct {
	entries []poolEntry
	utf8    map[string]uint16
	class   map[string]uint16
	nat     map[[2]string]uint16 // name+descriptor -> index
	fieldr  map[[3]string]uint16
	methr   map[[3]string]uint16
	imethr  map[[3]string]uint16
	str     map[string]uint16
	ints    map[int32]uint16
	longs   map[int64]uint16
	floats  map[float32]uint16
	doubles map[float64]uint16
}

type poolEntry struct {
	tag  byte
	data []byte // pre-encoded big-endian payload, sans the tag byte
	wide bool   // long/double entries occupy two pool slots
}

func newPool() *pool {
	return &pool{
		utf8:    map[string]uint16{},
		class:   map[string]uint16{},
		nat:     map[[2]string]uint16{},
		fieldr:  map[[3]string]uint16{},
		methr:   map[[3]string]uint16{},
		imethr:  map[[3]string]uint16{},
		str:     map[string]uint16{},
		ints:    map[int32]uint16{},
		longs:   map[int64]uint16{},
		floats:  map[float32]uint16{},
		doubles: map[float64]uint16{},
	}
}

// add appends an entry and returns its 1-based pool index. Long/double
// entries additionally burn the following index, per JVM spec §4.4.5.
func (p *pool) add(e poolEntry) uint16 {
	p.entries = append(p.entries, e)
	idx := uint16(len(p.entries))
	if e.wide {
		p.entries = append(p.entries, poolEntry{})
	}
	return idx
}

func (p *pool) utf8Index(s string) uint16 {
	if idx, ok := p.utf8[s]; ok {
		return idx
	}
	idx := p.add(poolEntry{tag: tagUTF8, data: []byte(s)})
	p.utf8[s] = idx
	return idx
}

func (p *pool) classIndex(internalName string) uint16 {
	if idx, ok := p.class[internalName]; ok {
		return idx
	}
	nameIdx := p.utf8Index(internalName)
	idx := p.add(poolEntry{tag: tagClass, data: u16(nameIdx)})
	p.class[internalName] = idx
	return idx
}

func (p *pool) nameAndTypeIndex(name, descriptor string) uint16 {
	key := [2]string{name, descriptor}
	if idx, ok := p.nat[key]; ok {
		return idx
	}
	nameIdx := p.utf8Index(name)
	descIdx := p.utf8Index(descriptor)
	idx := p.add(poolEntry{tag: tagNameAndType, data: append(u16(nameIdx), u16(descIdx)...)})
	p.nat[key] = idx
	return idx
}

func (p *pool) refIndex(tag byte, cache map[[3]string]uint16, owner, name, descriptor string) uint16 {
	key := [3]string{owner, name, descriptor}
	if idx, ok := cache[key]; ok {
		return idx
	}
	classIdx := p.classIndex(owner)
	natIdx := p.nameAndTypeIndex(name, descriptor)
	idx := p.add(poolEntry{tag: tag, data: append(u16(classIdx), u16(natIdx)...)})
	cache[key] = idx
	return idx
}

func (p *pool) fieldrefIndex(owner, name, descriptor string) uint16 {
	return p.refIndex(tagFieldref, p.fieldr, owner, name, descriptor)
}

func (p *pool) methodrefIndex(owner, name, descriptor string) uint16 {
	return p.refIndex(tagMethodref, p.methr, owner, name, descriptor)
}

func (p *pool) interfaceMethodrefIndex(owner, name, descriptor string) uint16 {
	return p.refIndex(tagInterfaceMethodref, p.imethr, owner, name, descriptor)
}

func (p *pool) stringIndex(s string) uint16 {
	if idx, ok := p.str[s]; ok {
		return idx
	}
	utf8Idx := p.utf8Index(s)
	idx := p.add(poolEntry{tag: tagString, data: u16(utf8Idx)})
	p.str[s] = idx
	return idx
}

func (p *pool) intIndex(v int32) uint16 {
	if idx, ok := p.ints[v]; ok {
		return idx
	}
	idx := p.add(poolEntry{tag: tagInteger, data: u32(uint32(v))})
	p.ints[v] = idx
	return idx
}

func (p *pool) longIndex(v int64) uint16 {
	if idx, ok := p.longs[v]; ok {
		return idx
	}
	idx := p.add(poolEntry{tag: tagLong, data: u64(uint64(v)), wide: true})
	p.longs[v] = idx
	return idx
}

func (p *pool) floatIndex(v float32) uint16 {
	if idx, ok := p.floats[v]; ok {
		return idx
	}
	idx := p.add(poolEntry{tag: tagFloat, data: u32(f32bits(v))})
	p.floats[v] = idx
	return idx
}

func (p *pool) doubleIndex(v float64) uint16 {
	if idx, ok := p.doubles[v]; ok {
		return idx
	}
	idx := p.add(poolEntry{tag: tagDouble, data: u64(f64bits(v)), wide: true})
	p.doubles[v] = idx
	return idx
}

// count is the constant_pool_count field: one more than the number of
// entries, per JVM spec §4.1 (index 0 is reserved).
func (p *pool) count() uint16 {
	return uint16(len(p.entries)) + 1
}

func (p *pool) encode() []byte {
	var out []byte
	for _, e := range p.entries {
		if e.tag == 0 {
			continue // second slot of a wide (long/double) entry
		}
		out = append(out, e.tag)
		out = append(out, e.data...)
	}
	return out
}

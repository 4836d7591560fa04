// Package restable parses the compiled resource table (global string pool,
// package chunks, per-configuration type chunks) into an in-memory table
// keyed by resource id, and implements the platform's configuration
// best-match algorithm over it.
package restable

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/avast/dexjvm/internal/strpool"
)

const (
	chunkTable        = 0x0002
	chunkStringPool   = 0x0001
	chunkTablePackage = 0x0200
	chunkTableType    = 0x0201
	chunkTableSpec    = 0x0202

	chunkHeaderSize = 8
)

// Entry is one resource entry: an id within its type, its key name, and its
// decoded value.
type Entry struct {
	ID    uint16
	Name  string
	Value *Value
}

// TypeChunk is one configuration variant of one type: the type's id and
// name, the ResTableConfig describing which device configuration it
// applies to, and the entries declared for that configuration. Entries at
// the same index across TypeChunks sharing TypeID are variants of the same
// resource (spec.md §3, "Type chunk").
type TypeChunk struct {
	TypeID  uint8
	Name    string
	Config  Config
	Entries []*Entry // nil slots mean "entry absent at this config"
}

// Package is one 8-bit-id package within the table.
type Package struct {
	ID    uint32
	Name  string
	Types []*TypeChunk
}

// Table is the parsed resource table: an ordered sequence of packages and
// the global string pool their string-typed values are indexed against.
type Table struct {
	Strings  *strpool.Pool
	Packages []*Package
}

// Parse decodes a complete compiled resource table.
func Parse(data []byte) (*Table, error) {
	if len(data) < chunkHeaderSize {
		return nil, fmt.Errorf("restable: truncated header")
	}
	id, _, size, err := readChunkHeader(data)
	if err != nil {
		return nil, err
	}
	if id != chunkTable {
		return nil, fmt.Errorf("restable: not a valid resources file (chunk type 0x%04x)", id)
	}
	if uint64(size) > uint64(len(data)) {
		return nil, fmt.Errorf("restable: declared size %d exceeds input %d", size, len(data))
	}
	data = data[:size]

	if len(data) < chunkHeaderSize+4 {
		return nil, fmt.Errorf("restable: truncated table header")
	}
	// packageCount at data[8:12] is informational; we discover packages by
	// walking the chunk stream like everything else here.

	t := &Table{}
	buf := data[chunkHeaderSize+4:]
	for len(buf) > 0 {
		if len(buf) < chunkHeaderSize {
			return nil, fmt.Errorf("restable: truncated chunk header")
		}
		cid, _, clen, err := readChunkHeader(buf)
		if err != nil {
			return nil, err
		}
		if uint64(clen) < chunkHeaderSize || uint64(clen) > uint64(len(buf)) {
			return nil, fmt.Errorf("restable: chunk 0x%04x size %d overruns remaining %d bytes", cid, clen, len(buf))
		}
		chunk := buf[:clen]

		switch cid {
		case chunkStringPool:
			pool, err := strpool.Parse(chunk)
			if err != nil {
				return nil, fmt.Errorf("restable: global string pool: %w", err)
			}
			t.Strings = pool
		case chunkTablePackage:
			pkg, err := parsePackage(chunk)
			if err != nil {
				return nil, fmt.Errorf("restable: package: %w", err)
			}
			t.Packages = append(t.Packages, pkg)
		default:
			// unknown chunk type: skip using its declared size (tolerant parse)
		}

		buf = buf[clen:]
	}

	t.resolveStringValues()
	return t, nil
}

// resolveStringValues fills in Str for every ValueString decoded during
// parsing, now that the global string pool (which may appear after the
// packages that reference it) is fully known.
func (t *Table) resolveStringValues() {
	resolve := func(v *Value) {
		if v != nil && v.Kind == ValueString {
			v.Str = t.Strings.String(v.RawData)
		}
	}
	for _, pkg := range t.Packages {
		for _, tc := range pkg.Types {
			for _, e := range tc.Entries {
				if e == nil {
					continue
				}
				resolve(e.Value)
				if e.Value != nil && e.Value.Kind == ValueComplex {
					for _, sub := range e.Value.Complex {
						resolve(sub)
					}
				}
			}
		}
	}
}

func readChunkHeader(b []byte) (id, headerLen uint16, size uint32, err error) {
	if len(b) < chunkHeaderSize {
		return 0, 0, 0, fmt.Errorf("restable: truncated chunk header")
	}
	id = binary.LittleEndian.Uint16(b[0:2])
	headerLen = binary.LittleEndian.Uint16(b[2:4])
	size = binary.LittleEndian.Uint32(b[4:8])
	return id, headerLen, size, nil
}

func parsePackage(chunk []byte) (*Package, error) {
	_, headerLen, _, err := readChunkHeader(chunk)
	if err != nil {
		return nil, err
	}
	if len(chunk) < 8+4+256+16 {
		return nil, fmt.Errorf("truncated package header")
	}
	pkg := &Package{
		ID:   binary.LittleEndian.Uint32(chunk[8:12]),
		Name: decodePackageName(chunk[12:268]),
	}

	if uint64(headerLen) > uint64(len(chunk)) {
		return nil, fmt.Errorf("package header size %d exceeds chunk %d", headerLen, len(chunk))
	}

	var typeNames, keyNames *strpool.Pool
	buf := chunk[headerLen:]
	for len(buf) > 0 {
		if len(buf) < chunkHeaderSize {
			return nil, fmt.Errorf("truncated chunk header in package")
		}
		cid, _, clen, err := readChunkHeader(buf)
		if err != nil {
			return nil, err
		}
		if uint64(clen) < chunkHeaderSize || uint64(clen) > uint64(len(buf)) {
			return nil, fmt.Errorf("chunk 0x%04x size %d overruns remaining %d bytes", cid, clen, len(buf))
		}
		sub := buf[:clen]

		switch cid {
		case chunkStringPool:
			pool, err := strpool.Parse(sub)
			if err != nil {
				return nil, fmt.Errorf("string pool: %w", err)
			}
			if typeNames == nil {
				typeNames = pool
			} else if keyNames == nil {
				keyNames = pool
			}
		case chunkTableSpec:
			// retained for completeness; the matcher does not consult it (spec.md §4.3)
		case chunkTableType:
			tc, err := parseTypeChunk(sub, typeNames, keyNames)
			if err != nil {
				return nil, fmt.Errorf("type chunk: %w", err)
			}
			pkg.Types = append(pkg.Types, tc)
		default:
			// unknown: skip
		}

		buf = buf[clen:]
	}

	return pkg, nil
}

func decodePackageName(b []byte) string {
	units := make([]uint16, 128)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	n := len(units)
	for n > 0 && units[n-1] == 0 {
		n--
	}
	return string(utf16.Decode(units[:n]))
}

func parseTypeChunk(chunk []byte, typeNames, keyNames *strpool.Pool) (*TypeChunk, error) {
	_, headerLen, _, err := readChunkHeader(chunk)
	if err != nil {
		return nil, err
	}
	if len(chunk) < 20 {
		return nil, fmt.Errorf("truncated type chunk header")
	}
	typeID := chunk[8]
	entryCount := binary.LittleEndian.Uint32(chunk[12:16])
	entriesStart := binary.LittleEndian.Uint32(chunk[16:20])

	tc := &TypeChunk{
		TypeID: typeID,
		Name:   typeNames.String(uint32(typeID) - 1),
	}

	cfg, cfgLen, err := parseConfig(chunk[20:])
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	tc.Config = cfg

	if uint64(headerLen) > uint64(len(chunk)) {
		return nil, fmt.Errorf("type header size %d exceeds chunk %d", headerLen, len(chunk))
	}
	_ = cfgLen

	offTable := chunk[headerLen:]
	if uint64(entryCount)*4 > uint64(len(offTable)) {
		return nil, fmt.Errorf("entry offset table overruns chunk")
	}

	tc.Entries = make([]*Entry, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		off := binary.LittleEndian.Uint32(offTable[i*4 : i*4+4])
		if off == 0xFFFFFFFF {
			continue // entry absent at this config
		}
		base := int64(entriesStart) + int64(off)
		if base < 0 || base+8 > int64(len(chunk)) {
			return nil, fmt.Errorf("entry %d offset out of range", i)
		}
		entry, err := parseEntry(chunk[base:], keyNames)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entry.ID = uint16(i)
		tc.Entries[i] = entry
	}

	return tc, nil
}

const entryFlagComplex = 0x0001

func parseEntry(b []byte, keyNames *strpool.Pool) (*Entry, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("truncated entry header")
	}
	size := binary.LittleEndian.Uint16(b[0:2])
	flags := binary.LittleEndian.Uint16(b[2:4])
	keyIdx := binary.LittleEndian.Uint32(b[4:8])

	e := &Entry{Name: keyNames.String(keyIdx)}

	body := b[size:]
	if flags&entryFlagComplex != 0 {
		val, err := parseComplexValue(body)
		if err != nil {
			return nil, err
		}
		e.Value = val
		return e, nil
	}

	val, err := parseSimpleValue(body)
	if err != nil {
		return nil, err
	}
	e.Value = val
	return e, nil
}

func parseSimpleValue(b []byte) (*Value, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("truncated value")
	}
	typedType := b[3]
	data := binary.LittleEndian.Uint32(b[4:8])
	return decodeEntryValue(typedType, data), nil
}

func parseComplexValue(b []byte) (*Value, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("truncated complex value header")
	}
	parent := binary.LittleEndian.Uint32(b[0:4])
	count := binary.LittleEndian.Uint32(b[4:8])

	v := &Value{Kind: ValueComplex, Parent: parent, Complex: make(map[string]*Value, count)}
	off := 8
	for i := uint32(0); i < count; i++ {
		if off+12 > len(b) {
			return nil, fmt.Errorf("complex entry %d overruns value", i)
		}
		key := binary.LittleEndian.Uint32(b[off : off+4])
		typedType := b[off+4+3]
		data := binary.LittleEndian.Uint32(b[off+8 : off+12])
		v.Complex[fmt.Sprintf("%x", key)] = decodeEntryValue(typedType, data)
		off += 12
	}
	return v, nil
}

// typed-value tags shared with binxml's attribute encoding, plus the
// color tags unique to resource table entries (spec.md §4.3).
const (
	tagNull      = 0x00
	tagReference = 0x01
	tagString    = 0x03
	tagFloat     = 0x04
	tagDimension = 0x05
	tagFraction  = 0x06
	tagIntDec    = 0x10
	tagIntHex    = 0x11
	tagIntBool   = 0x12
	tagColorLo   = 0x1c
	tagColorHi   = 0x1f
)

func decodeEntryValue(typedType byte, data uint32) *Value {
	switch {
	case typedType == tagNull:
		return &Value{Kind: ValueNull, RawData: data}
	case typedType == tagReference:
		return &Value{Kind: ValueReference, Int: int32(data), RawData: data}
	case typedType == tagString:
		return &Value{Kind: ValueString, RawData: data} // resolved by caller against the global pool (Str set there)
	case typedType == tagFloat || typedType == tagFraction:
		return &Value{Kind: ValueInt, Int: int32(data), RawData: data}
	case typedType == tagDimension:
		return &Value{
			Kind: ValueDimension,
			Dim:  float32(data>>8) / float32(uint32(1)<<((data>>4)&0xF)),
			Unit: unitName(data & 0xF),
		}
	case typedType == tagIntBool:
		return &Value{Kind: ValueBool, Bool: data != 0, RawData: data}
	case typedType >= tagColorLo && typedType <= tagColorHi:
		return &Value{Kind: ValueColor, Color: data, RawData: data}
	case typedType == tagIntDec || typedType == tagIntHex:
		return &Value{Kind: ValueInt, Int: int32(data), RawData: data}
	default:
		return &Value{Kind: ValueInt, Int: int32(data), RawData: data}
	}
}

var dimensionUnits = [...]string{"px", "dp", "sp", "pt", "in", "mm"}

func unitName(code uint32) string {
	if int(code) >= len(dimensionUnits) {
		return dimensionUnits[0]
	}
	return dimensionUnits[code]
}

// parseConfig decodes a ResTableConfig from b (positioned at the 32-bit
// size field that begins every config region), per the size-gated field
// table in spec.md §4.3. size itself is read here since the caller hasn't
// consumed it yet.
func parseConfig(b []byte) (Config, uint32, error) {
	if len(b) < 4 {
		return Config{}, 0, fmt.Errorf("truncated config size")
	}
	size := binary.LittleEndian.Uint32(b[0:4])
	if uint64(size) > uint64(len(b)) {
		return Config{}, 0, fmt.Errorf("config size %d exceeds available %d", size, len(b))
	}
	region := b[4:size]

	var c Config
	if len(region) < 24 { // 28 - 4 (size field already consumed)
		return c, size, nil // use default ResTableConfig (spec.md §7)
	}

	// mcc, mnc occupy region[0:4], intentionally unused.
	copy(c.Language[:], region[4:6])
	copy(c.Country[:], region[6:8])
	c.Orientation = region[8]
	c.Touchscreen = region[9]
	c.Density = binary.LittleEndian.Uint16(region[10:12])
	c.Keyboard = region[12]
	c.Navigation = region[13]
	c.InputFlags = region[14]
	// region[15] inputPad, unused
	c.ScreenWidthPx = binary.LittleEndian.Uint16(region[16:18])
	c.ScreenHeightPx = binary.LittleEndian.Uint16(region[18:20])

	if len(region) >= 28 {
		c.SDKVersion = binary.LittleEndian.Uint16(region[20:22])
		c.MinorVersion = binary.LittleEndian.Uint16(region[22:24])
	}
	if len(region) >= 32 {
		c.ScreenLayout = region[24]
		c.UIMode = region[25]
		c.SmallestWidthDp = binary.LittleEndian.Uint16(region[26:28])
	}
	if len(region) >= 36 {
		c.WidthDp = binary.LittleEndian.Uint16(region[28:30])
		c.HeightDp = binary.LittleEndian.Uint16(region[30:32])
	}

	return c, size, nil
}

// Resource looks up the resource id's first matching package, first
// matching type chunk (any variant), and first matching entry id.
func (t *Table) Resource(id uint32) (*Entry, *TypeChunk, bool) {
	pkgID, typeID, entryID := SplitID(id)
	for _, pkg := range t.Packages {
		if pkg.ID != uint32(pkgID) {
			continue
		}
		for _, tc := range pkg.Types {
			if tc.TypeID != typeID {
				continue
			}
			if int(entryID) < len(tc.Entries) && tc.Entries[entryID] != nil {
				return tc.Entries[entryID], tc, true
			}
		}
		return nil, nil, false
	}
	return nil, nil, false
}

// Variant is one (config, entry) candidate pair, the input shape the
// configuration matcher consumes.
type Variant struct {
	Config Config
	Entry  *Entry
}

// Variants returns every (config, entry) pair across all type chunks of the
// first matching package with matching (type, entry) ids.
func (t *Table) Variants(id uint32) []Variant {
	pkgID, typeID, entryID := SplitID(id)
	var out []Variant
	for _, pkg := range t.Packages {
		if pkg.ID != uint32(pkgID) {
			continue
		}
		for _, tc := range pkg.Types {
			if tc.TypeID != typeID {
				continue
			}
			if int(entryID) < len(tc.Entries) && tc.Entries[entryID] != nil {
				out = append(out, Variant{Config: tc.Config, Entry: tc.Entries[entryID]})
			}
		}
		break
	}
	return out
}

// SplitID decomposes a 32-bit resource id 0xPPTTEEEE into package, type,
// and entry components, per spec.md §6.
func SplitID(id uint32) (pkg byte, typ byte, entry uint16) {
	return byte(id >> 24), byte(id >> 16), uint16(id)
}

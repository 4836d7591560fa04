package restable

import (
	"encoding/binary"
	"testing"
)

// buildPool assembles a minimal UTF-8 string-pool chunk, the same wire
// format internal/strpool.Parse (and this package's own callers) expect.
func buildPool(strs []string) []byte {
	const headerSize = 28
	offTableSize := len(strs) * 4

	var data []byte
	offsets := make([]uint32, len(strs))
	for i, s := range strs {
		offsets[i] = uint32(len(data))
		data = append(data, byte(len(s)), byte(len(s)))
		data = append(data, []byte(s)...)
		data = append(data, 0)
	}

	stringsStart := uint32(headerSize + offTableSize)
	chunkSize := stringsStart + uint32(len(data))

	buf := make([]byte, chunkSize)
	binary.LittleEndian.PutUint16(buf[0:2], chunkStringPool)
	binary.LittleEndian.PutUint16(buf[2:4], headerSize)
	binary.LittleEndian.PutUint32(buf[4:8], chunkSize)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(strs)))
	binary.LittleEndian.PutUint32(buf[16:20], 0x100) // UTF-8 flag
	binary.LittleEndian.PutUint32(buf[20:24], stringsStart)
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(buf[headerSize+i*4:], off)
	}
	copy(buf[stringsStart:], data)
	return buf
}

// buildSimpleEntry assembles one ResTable_entry (non-complex): an 8-byte
// header (size, flags, key index) followed by an 8-byte Res_value
// (size, res0, dataType, data).
func buildSimpleEntry(keyIdx uint32, dataType byte, data uint32) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint16(b[0:2], 8) // entry header size
	binary.LittleEndian.PutUint32(b[4:8], keyIdx)
	binary.LittleEndian.PutUint16(b[8:10], 8) // value size
	b[11] = dataType
	binary.LittleEndian.PutUint32(b[12:16], data)
	return b
}

// buildTypeChunk assembles one ResTable_type chunk: the 20-byte type
// header, a 36-byte ResTable_config (size-prefixed) wide enough to carry
// every size-gated field this package decodes, a one-entry offset table,
// and the entry data itself.
func buildTypeChunk(typeID byte, cfgLanguage [2]byte, screenLayout, uiMode byte, entry []byte) []byte {
	const typeHeaderSize = 20
	const cfgSize = 36
	headerLen := typeHeaderSize + cfgSize
	entriesStart := uint32(headerLen + 4) // right after the 1-entry offset table

	chunkSize := int(entriesStart) + len(entry)
	buf := make([]byte, chunkSize)
	binary.LittleEndian.PutUint16(buf[0:2], chunkTableType)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(headerLen))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(chunkSize))
	buf[8] = typeID
	binary.LittleEndian.PutUint32(buf[12:16], 1) // entryCount
	binary.LittleEndian.PutUint32(buf[16:20], entriesStart)

	cfg := buf[20 : 20+cfgSize]
	binary.LittleEndian.PutUint32(cfg[0:4], cfgSize)
	copy(cfg[8:10], cfgLanguage[:])
	cfg[28] = screenLayout
	cfg[29] = uiMode

	binary.LittleEndian.PutUint32(buf[headerLen:headerLen+4], 0) // one entry at offset 0
	copy(buf[entriesStart:], entry)
	return buf
}

func buildPackageChunk(id uint32, name string, typeNames, keyNames []byte, typeChunks ...[]byte) []byte {
	const nameFieldSize = 256
	const headerLen = 8 + 4 + nameFieldSize + 16

	var body []byte
	body = append(body, typeNames...)
	body = append(body, keyNames...)
	for _, tc := range typeChunks {
		body = append(body, tc...)
	}

	chunkSize := headerLen + len(body)
	buf := make([]byte, chunkSize)
	binary.LittleEndian.PutUint16(buf[0:2], chunkTablePackage)
	binary.LittleEndian.PutUint16(buf[2:4], headerLen)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(chunkSize))
	binary.LittleEndian.PutUint32(buf[8:12], id)

	nameField := buf[12 : 12+nameFieldSize]
	for i, r := range name {
		binary.LittleEndian.PutUint16(nameField[i*2:], uint16(r))
	}

	copy(buf[headerLen:], body)
	return buf
}

func buildTable(globalStrings []string, packages ...[]byte) []byte {
	strPool := buildPool(globalStrings)

	var body []byte
	body = append(body, strPool...)
	for _, pkg := range packages {
		body = append(body, pkg...)
	}

	const tableHeaderLen = 12 // chunkHeaderSize(8) + packageCount(4)
	chunkSize := tableHeaderLen + len(body)
	buf := make([]byte, chunkSize)
	binary.LittleEndian.PutUint16(buf[0:2], chunkTable)
	binary.LittleEndian.PutUint16(buf[2:4], 12)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(chunkSize))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(packages)))
	copy(buf[tableHeaderLen:], body)
	return buf
}

func TestParseResolvesStringEntryAgainstGlobalPool(t *testing.T) {
	typeNames := buildPool([]string{"string"})
	keyNames := buildPool([]string{"app_name"})
	entry := buildSimpleEntry(0, tagString, 0) // index 0 into the global pool: "Hello"
	tc := buildTypeChunk(1, [2]byte{}, 0, 0, entry)
	pkg := buildPackageChunk(0x7f, "app", typeNames, keyNames, tc)
	data := buildTable([]string{"Hello"}, pkg)

	table, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(table.Packages) != 1 {
		t.Fatalf("Packages = %d, want 1", len(table.Packages))
	}
	if table.Packages[0].ID != 0x7f {
		t.Errorf("Package.ID = %#x, want 0x7f", table.Packages[0].ID)
	}
	if table.Packages[0].Name != "app" {
		t.Errorf("Package.Name = %q, want app", table.Packages[0].Name)
	}

	entryID, typeChunk, ok := table.Resource(0x7f010000)
	if !ok {
		t.Fatal("Resource(0x7f010000): ok = false")
	}
	if typeChunk.Name != "string" {
		t.Errorf("TypeChunk.Name = %q, want string", typeChunk.Name)
	}
	if entryID.Name != "app_name" {
		t.Errorf("Entry.Name = %q, want app_name", entryID.Name)
	}
	if entryID.Value.Kind != ValueString || entryID.Value.Str != "Hello" {
		t.Errorf("Entry.Value = %+v, want Kind=ValueString Str=Hello", entryID.Value)
	}
}

func TestParseDecodesConfigQualifiers(t *testing.T) {
	typeNames := buildPool([]string{"string"})
	keyNames := buildPool([]string{"app_name"})
	entry := buildSimpleEntry(0, tagString, 0)
	tc := buildTypeChunk(1, [2]byte{'f', 'r'}, 0x03, 0x20, entry)
	pkg := buildPackageChunk(0x7f, "app", typeNames, keyNames, tc)
	data := buildTable([]string{"Bonjour"}, pkg)

	table, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	variants := table.Variants(0x7f010000)
	if len(variants) != 1 {
		t.Fatalf("Variants = %d, want 1", len(variants))
	}
	cfg := variants[0].Config
	if cfg.languageStr() != "fr" {
		t.Errorf("Config.languageStr() = %q, want fr", cfg.languageStr())
	}
	if cfg.ScreenSize() != 3 {
		t.Errorf("Config.ScreenSize() = %d, want 3", cfg.ScreenSize())
	}
	if cfg.NightMode() != 2 {
		t.Errorf("Config.NightMode() = %d, want 2", cfg.NightMode())
	}
}

func TestParseComplexEntry(t *testing.T) {
	typeNames := buildPool([]string{"style"})
	keyNames := buildPool([]string{"AppTheme"})

	// parseEntry's declared size covers only the basic entry header here;
	// parseComplexValue reads parent+count itself from what follows.
	header := make([]byte, 8)
	binary.LittleEndian.PutUint16(header[0:2], 8) // entry header size
	binary.LittleEndian.PutUint16(header[2:4], entryFlagComplex)
	binary.LittleEndian.PutUint32(header[4:8], 0) // keyIdx

	complexBody := make([]byte, 20)
	binary.LittleEndian.PutUint32(complexBody[0:4], 0) // parent
	binary.LittleEndian.PutUint32(complexBody[4:8], 1) // count
	binary.LittleEndian.PutUint32(complexBody[8:12], 0x01010001)
	complexBody[15] = tagIntDec
	binary.LittleEndian.PutUint32(complexBody[16:20], 7)

	entry := append(header, complexBody...)
	tc := buildTypeChunk(1, [2]byte{}, 0, 0, entry)
	pkg := buildPackageChunk(0x7f, "app", typeNames, keyNames, tc)
	data := buildTable(nil, pkg)

	table, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e, _, ok := table.Resource(0x7f010000)
	if !ok {
		t.Fatal("Resource: ok = false")
	}
	if e.Value.Kind != ValueComplex {
		t.Fatalf("Value.Kind = %v, want ValueComplex", e.Value.Kind)
	}
	sub, ok := e.Value.Complex["1010001"]
	if !ok {
		t.Fatal("Complex[\"1010001\"] missing")
	}
	if sub.Kind != ValueInt || sub.Int != 7 {
		t.Errorf("Complex entry = %+v, want Kind=ValueInt Int=7", sub)
	}
}

func TestParseRejectsWrongTopChunkType(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint16(buf[0:2], 0x9999)
	binary.LittleEndian.PutUint32(buf[4:8], 8)
	if _, err := Parse(buf); err == nil {
		t.Error("Parse(wrong chunk type): expected an error, got nil")
	}
}

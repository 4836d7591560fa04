package binxml

// Chunk type tags, ported from the Android platform's binary-XML wire
// format (frameworks/base/libs/androidfw/include/androidfw/ResourceTypes.h
// in the original platform source; this module never touches that tree,
// only the wire constants it defines).
const (
	chunkNull        = 0x0000
	chunkStringPool  = 0x0001
	chunkXMLFile     = 0x0003
	chunkResourceIDs = 0x0180

	chunkMaskXML    = 0x0100
	chunkXMLNSStart = 0x0100
	chunkXMLNSEnd   = 0x0101
	chunkTagStart   = 0x0102
	chunkTagEnd     = 0x0103
	chunkText       = 0x0104

	chunkHeaderSize = 8 // type(2) + headerSize(2) + size(4)
)

// typed-attribute-value tags, spec.md §4.2
const (
	tagNull       = 0x00
	tagReference  = 0x01
	tagAttribute  = 0x02
	tagString     = 0x03
	tagFloat      = 0x04
	tagDimension  = 0x05
	tagFraction   = 0x06
	tagIntDec     = 0x10
	tagIntHex     = 0x11
	tagIntBoolean = 0x12
)

var dimensionUnits = [...]string{"px", "dp", "sp", "pt", "in", "mm"}

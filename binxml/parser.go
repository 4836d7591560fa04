// Package binxml parses the platform's compiled binary-XML format: a file
// header, an interned string pool, an optional resource-id table, and a
// flat stream of start-namespace / start-element / end-element / text
// chunks that this package assembles into an Element tree.
//
// Parsing is tolerant the way spec.md §4.2 demands: out-of-range pool
// indices decode to the empty string, unknown chunk types are skipped by
// their declared size, and only a handful of conditions (bad magic, a chunk
// that would overrun the file) are fatal.
package binxml

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/avast/dexjvm/internal/strpool"
)

// ErrPlainTextManifest is returned when the input looks like a plain-text
// XML manifest rather than the compiled binary form -- a distinguishable
// and fairly common build-tooling mistake, surfaced separately from a
// generic parse failure (ported from avast/apkparser's own manifest
// sniffing heuristic).
var ErrPlainTextManifest = errors.New("binxml: xml is in plaintext, binary form expected")

type parser struct {
	strings     *strpool.Pool
	resourceIDs []uint32

	stack []*Element
	doc   Document
}

// Parse decodes a complete compiled-XML document.
func Parse(data []byte) (*Document, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("binxml: %w", errTruncated)
	}

	if looksLikePlainXML(data) {
		return nil, ErrPlainTextManifest
	}

	id, _, fileSize, err := readChunkHeader(data)
	if err != nil {
		return nil, fmt.Errorf("binxml: %w", err)
	}
	if id != chunkXMLFile {
		return nil, fmt.Errorf("binxml: not a valid binary XML file: top chunk type 0x%04x", id)
	}

	if uint64(fileSize) > uint64(len(data)) {
		return nil, fmt.Errorf("binxml: not a valid binary XML file: declared size %d exceeds input %d", fileSize, len(data))
	}

	p := &parser{doc: Document{Namespaces: map[string]string{}}}

	buf := data[chunkHeaderSize:fileSize]
	for len(buf) > 0 {
		if len(buf) < chunkHeaderSize {
			return nil, fmt.Errorf("binxml: %w", errTruncated)
		}
		cid, _, clen, err := readChunkHeader(buf)
		if err != nil {
			return nil, fmt.Errorf("binxml: %w", err)
		}
		if uint64(clen) < chunkHeaderSize || uint64(clen) > uint64(len(buf)) {
			return nil, fmt.Errorf("binxml: chunk 0x%04x size %d overruns remaining %d bytes", cid, clen, len(buf))
		}
		if err := p.dispatch(cid, buf[:clen]); err != nil {
			return nil, fmt.Errorf("binxml: chunk 0x%04x: %w", cid, err)
		}

		buf = buf[clen:]
	}

	return &p.doc, nil
}

var errTruncated = errors.New("truncated chunk header")

func looksLikePlainXML(data []byte) bool {
	if len(data) < 6 {
		return false
	}
	s := string(data[:6])
	return strings.HasPrefix(s, "<?xml ") || strings.HasPrefix(s, "<manif")
}

func readChunkHeader(b []byte) (id, headerLen uint16, size uint32, err error) {
	if len(b) < chunkHeaderSize {
		return 0, 0, 0, errTruncated
	}
	id = binary.LittleEndian.Uint16(b[0:2])
	headerLen = binary.LittleEndian.Uint16(b[2:4])
	size = binary.LittleEndian.Uint32(b[4:8])
	return id, headerLen, size, nil
}

// dispatch handles one chunk. chunk is the complete declared-size slice,
// including its own 8-byte type/headerSize/size header.
func (p *parser) dispatch(id uint16, chunk []byte) error {
	switch id {
	case chunkStringPool:
		pool, err := strpool.Parse(chunk)
		if err != nil {
			return err
		}
		p.strings = pool
		return nil
	case chunkResourceIDs:
		return p.parseResourceIDs(chunk[chunkHeaderSize:])
	default:
		if id&chunkMaskXML == 0 {
			return nil // unknown, non-XML chunk: skip using its declared size
		}
		body := chunk[chunkHeaderSize:]
		if len(body) < 8 {
			return errTruncated
		}
		ext := body[8:] // skip lineNumber, comment
		switch id {
		case chunkXMLNSStart:
			return p.parseNSStart(ext)
		case chunkXMLNSEnd:
			return nil // prefix mappings survive across the tree, per spec.md §4.2
		case chunkTagStart:
			return p.parseTagStart(ext)
		case chunkTagEnd:
			return p.parseTagEnd(ext)
		case chunkText:
			return p.parseText(ext)
		default:
			return nil // unknown XML sub-chunk: tolerate
		}
	}
}

func (p *parser) parseResourceIDs(body []byte) error {
	if len(body)%4 != 0 {
		return fmt.Errorf("resource id table size %d not a multiple of 4", len(body))
	}
	for i := 0; i+4 <= len(body); i += 4 {
		p.resourceIDs = append(p.resourceIDs, binary.LittleEndian.Uint32(body[i:i+4]))
	}
	return nil
}

func (p *parser) str(idx uint32) string {
	return p.strings.String(idx)
}

func (p *parser) parseNSStart(body []byte) error {
	if len(body) < 8 {
		return errTruncated
	}
	prefixIdx := binary.LittleEndian.Uint32(body[0:4])
	uriIdx := binary.LittleEndian.Uint32(body[4:8])
	p.doc.Namespaces[p.str(prefixIdx)] = p.str(uriIdx)
	return nil
}

func (p *parser) parseTagStart(body []byte) error {
	if len(body) < 20 {
		return errTruncated
	}
	nsIdx := binary.LittleEndian.Uint32(body[0:4])
	nameIdx := binary.LittleEndian.Uint32(body[4:8])
	attrStart := binary.LittleEndian.Uint16(body[8:10])
	attrSize := binary.LittleEndian.Uint16(body[10:12])
	attrCount := binary.LittleEndian.Uint16(body[12:14])
	// idIndex, classIndex, styleIndex follow and are unused here.

	el := &Element{
		Name:      p.str(nameIdx),
		Namespace: p.strOrEmpty(nsIdx),
	}

	attrBase := int(attrStart)
	for i := uint16(0); i < attrCount; i++ {
		off := attrBase + int(i)*int(attrSize)
		if off+20 > len(body) {
			return fmt.Errorf("attribute %d overruns tag body", i)
		}
		attr, err := p.parseAttribute(body[off : off+20])
		if err != nil {
			return err
		}
		el.Attrs = append(el.Attrs, attr)
	}

	if len(p.stack) == 0 {
		p.doc.Root = el
	} else {
		parent := p.stack[len(p.stack)-1]
		el.Parent = parent
		parent.Children = append(parent.Children, el)
	}
	p.stack = append(p.stack, el)
	return nil
}

func (p *parser) strOrEmpty(idx uint32) string {
	if idx == math.MaxUint32 {
		return ""
	}
	return p.str(idx)
}

func (p *parser) parseAttribute(b []byte) (Attribute, error) {
	nsIdx := binary.LittleEndian.Uint32(b[0:4])
	nameIdx := binary.LittleEndian.Uint32(b[4:8])
	rawValueIdx := binary.LittleEndian.Uint32(b[8:12])
	// b[12:14] size, b[14] res0
	typedType := b[15]
	data := binary.LittleEndian.Uint32(b[16:20])

	attr := Attribute{
		Name:      p.str(nameIdx),
		Namespace: p.strOrEmpty(nsIdx),
		Raw:       p.strOrEmpty(rawValueIdx),
	}
	if nameIdx < uint32(len(p.resourceIDs)) {
		id := p.resourceIDs[nameIdx]
		attr.ResID = &id
	}

	attr.Value = decodeValue(typedType, data, p.strings)
	return attr, nil
}

func decodeValue(typedType byte, data uint32, strings *strpool.Pool) Value {
	v := Value{RawData: data}
	switch typedType {
	case tagNull:
		v.Kind = ValueNull
	case tagReference:
		v.Kind = ValueReference
		v.Int = int32(data)
	case tagAttribute:
		v.Kind = ValueAttributeRef
		v.Int = int32(data)
	case tagString:
		v.Kind = ValueString
		v.Str = strings.String(data)
	case tagFloat:
		v.Kind = ValueFloat
		v.Float = math.Float32frombits(data)
	case tagDimension:
		v.Kind = ValueDimension
		v.Float = float32(data>>8) / float32(uint32(1)<<((data>>4)&0xF))
		v.Unit = unitName(data & 0xF)
	case tagFraction:
		v.Kind = ValueFraction
		v.Float = float32(data>>8) / float32(uint32(1)<<((data>>4)&0xF))
		v.IsPercent = data&0xF == 1
	case tagIntDec:
		v.Kind = ValueIntDec
		v.Int = int32(data)
	case tagIntHex:
		v.Kind = ValueIntHex
		v.Int = int32(data)
	case tagIntBoolean:
		v.Kind = ValueBool
		v.Bool = data != 0
	default:
		// spec.md §4.2: unrecognized tags fall back to decimal int.
		v.Kind = ValueIntDec
		v.Int = int32(data)
	}
	return v
}

func unitName(code uint32) string {
	idx := int(code)
	if idx < 0 || idx >= len(dimensionUnits) {
		return dimensionUnits[0]
	}
	return dimensionUnits[idx]
}

func (p *parser) parseTagEnd(body []byte) error {
	if len(body) < 8 {
		return errTruncated
	}
	if len(p.stack) == 0 {
		return fmt.Errorf("end-element with empty element stack")
	}
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

func (p *parser) parseText(body []byte) error {
	if len(body) < 4 {
		return errTruncated
	}
	idx := binary.LittleEndian.Uint32(body[0:4])
	if len(p.stack) == 0 {
		return nil // stray text outside any element: tolerate
	}
	parent := p.stack[len(p.stack)-1]
	parent.Children = append(parent.Children, &Element{
		Name:   TextElementName,
		Parent: parent,
		Text:   p.str(idx),
	})
	return nil
}

// Package archive opens the packaged application file and exposes its
// three inputs to the rest of the pipeline: the compiled manifest, the
// compiled resource table, and the raw compiled-bytecode entries (spec.md
// §6, "Input formats"). The container format itself is a ZIP file, tolerated
// even when malformed the way real devices tolerate it. That tolerant
// reader is not reimplemented here: it is the published upstream module's
// own ZipReader, the same type archive.VerifySignature already opens for
// the signing-block scan, so there is exactly one ZIP-reading type in play
// rather than two parallel ones.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	upstream "github.com/avast/apkparser"
	"github.com/edsrzf/mmap-go"
)

const (
	manifestEntry = "AndroidManifest.xml"
	resTableEntry = "resources.arsc"
)

// ErrMissingEntry is returned by ManifestBytes (wrapped with the entry
// name) when the archive has no AndroidManifest.xml entry.
// ResourceTableBytes reports a missing resources.arsc as (nil, nil)
// instead.
var ErrMissingEntry = errors.New("archive: entry not present")

// Archive is an opened application package.
type Archive struct {
	zr *upstream.ZipReader

	// mapped is non-nil when the archive was opened with OpenMapped; its
	// backing bytes must outlive every ReadAll call against zr.
	mapped mmap.MMap
	file   *os.File
}

// Open reads path fully via the OS file API.
func Open(path string) (*Archive, error) {
	zr, err := upstream.OpenZip(path)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &Archive{zr: zr}, nil
}

// OpenMapped memory-maps path instead of buffering it, so the ZIP
// central-directory walk and every deflate stream read from the mapped
// region without a full read into process memory first.
func OpenMapped(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: mmap: %w", err)
	}
	zr, err := upstream.OpenZipReader(&sliceReadSeeker{data: m})
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, fmt.Errorf("archive: %w", err)
	}
	return &Archive{zr: zr, mapped: m, file: f}, nil
}

// Close releases the archive's backing file / mapping.
func (a *Archive) Close() error {
	var err error
	if a.zr != nil {
		err = a.zr.Close()
	}
	if a.mapped != nil {
		if uerr := a.mapped.Unmap(); err == nil {
			err = uerr
		}
		a.mapped = nil
	}
	if a.file != nil {
		if cerr := a.file.Close(); err == nil {
			err = cerr
		}
		a.file = nil
	}
	return err
}

// ZipReader returns the underlying ZipReader, for callers (e.g. signature
// verification) that need the raw container.
func (a *Archive) ZipReader() *upstream.ZipReader { return a.zr }

// ManifestBytes returns the compiled AndroidManifest.xml entry's raw bytes.
func (a *Archive) ManifestBytes() ([]byte, error) {
	return a.readEntry(manifestEntry)
}

// ResourceTableBytes returns the compiled resources.arsc entry's raw
// bytes. Archives with no resource table return (nil, nil).
func (a *Archive) ResourceTableBytes() ([]byte, error) {
	f := a.zr.File[resTableEntry]
	if f == nil {
		return nil, nil
	}
	return a.readEntry(resTableEntry)
}

// ClassesDexFiles returns every classesN.dex entry's raw bytes, in
// classes.dex, classes2.dex, classes3.dex, ... order (spec.md's DexReader
// is the decoder; this only surfaces the compiled-bytecode entries
// themselves per §6's "not re-specified here").
func (a *Archive) ClassesDexFiles() ([][]byte, error) {
	var names []string
	for name := range a.zr.File {
		if name == "classes.dex" || (strings.HasPrefix(name, "classes") && strings.HasSuffix(name, ".dex")) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return dexFileOrder(names[i]) < dexFileOrder(names[j]) })

	out := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := a.readEntry(name)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func dexFileOrder(name string) int {
	if name == "classes.dex" {
		return 0
	}
	n := strings.TrimSuffix(strings.TrimPrefix(name, "classes"), ".dex")
	order := 0
	for _, r := range n {
		order = order*10 + int(r-'0')
	}
	return order
}

const maxEntrySize = 512 * 1024 * 1024 // generous cap against a crafted archive's uncompressed-size lie

func (a *Archive) readEntry(name string) ([]byte, error) {
	f := a.zr.File[name]
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntry, name)
	}
	data, err := f.ReadAll(maxEntrySize)
	if err != nil {
		return nil, fmt.Errorf("archive: reading %s: %w", name, err)
	}
	return data, nil
}

// sliceReadSeeker adapts a memory-mapped byte slice to io.ReadSeeker (and,
// via ReadAt below, io.ReaderAt) for OpenZipReader.
type sliceReadSeeker struct {
	data []byte
	pos  int64
}

func (s *sliceReadSeeker) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *sliceReadSeeker) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *sliceReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = int64(len(s.data)) + offset
	default:
		return 0, fmt.Errorf("archive: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("archive: negative seek position")
	}
	s.pos = newPos
	return newPos, nil
}

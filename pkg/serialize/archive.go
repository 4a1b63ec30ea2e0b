package serialize

import (
	"fmt"

	"github.com/pierrec/lz4/v4"

	nzslerrors "github.com/nzsl-lang/nzslc/pkg/errors"
	"github.com/nzsl-lang/nzslc/pkg/ir"
	"github.com/nzsl-lang/nzslc/pkg/source"
)

// magicArchive is the four-byte file signature for an archive of modules,
// "NSAF" little-endian.
const magicArchive = uint32('N') | uint32('S')<<8 | uint32('A')<<16 | uint32('F')<<24

// archiveVersion is the format version written into every archive header.
const archiveVersion uint32 = 1

// EntryKind distinguishes a module entry from an as-yet-unused reserved
// kind, kept as its own type so a future archive entry kind (e.g. a raw
// attachment) can be added without shifting existing tags.
type EntryKind uint8

const (
	EntryModule EntryKind = iota
)

// EntryFlags are bit flags stored per archive entry.
type EntryFlags uint8

const (
	// CompressedLZ4HC marks an entry whose payload was compressed with
	// lz4.CompressorHC before being written; ReadArchive transparently
	// decompresses it.
	CompressedLZ4HC EntryFlags = 1 << iota
)

// maxEntrySize bounds a single entry's uncompressed payload, matching the
// CLZ4ModuleTooLarge diagnostic this package raises when a module's
// compiled size would overflow the u32 offset/size fields in the header
// table.
const maxEntrySize = 1<<32 - 1

// entry is one module's header-table row: name, kind, flags, and its
// byte range within the archive body. Offset/Size describe the (possibly
// compressed) on-disk payload; RawSize is the uncompressed payload length,
// needed by the LZ4 decompressor which requires its output buffer
// pre-sized.
type entry struct {
	Name    string
	Kind    EntryKind
	Flags   EntryFlags
	Offset  uint32
	Size    uint32
	RawSize uint32
}

// archiveEntry pairs a module with the options AddModule was called with.
type archiveEntry struct {
	mod      *ir.Module
	compress bool
}

// Archive is an in-memory collection of named, independently addressable
// modules, the "nzsla" container: a header table of
// {name, kind, flags, offset, size} rows followed by the concatenated
// module payloads.
type Archive struct {
	entries map[string]*archiveEntry
	order   []string
}

// NewArchive constructs an empty archive.
func NewArchive() *Archive {
	return &Archive{entries: make(map[string]*archiveEntry)}
}

// AddModule inserts mod under name, compressing its serialized form with
// LZ4HC when compress is true. Returns an error if name is already
// present.
func (a *Archive) AddModule(name string, mod *ir.Module, compress bool) error {
	if _, exists := a.entries[name]; exists {
		return nzslerrors.New(nzslerrors.Compilation, nzslerrors.CAlreadyDeclared, source.NoSpan,
			"archive already contains a module named %q", name)
	}
	//
	a.entries[name] = &archiveEntry{mod: mod, compress: compress}
	a.order = append(a.order, name)
	return nil
}

// Merge copies every entry of other into a, failing on the first name
// collision and leaving a unmodified in that case.
func (a *Archive) Merge(other *Archive) error {
	for _, name := range other.order {
		if _, exists := a.entries[name]; exists {
			return nzslerrors.New(nzslerrors.Compilation, nzslerrors.CAlreadyDeclared, source.NoSpan,
				"archive merge: duplicate module name %q", name)
		}
	}
	//
	for _, name := range other.order {
		a.entries[name] = other.entries[name]
		a.order = append(a.order, name)
	}
	//
	return nil
}

// Names lists the modules stored in this archive, in insertion order.
func (a *Archive) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// WriteArchive serializes every module in a into w, back-patching each
// entry's offset/size once its payload has been written.
func WriteArchive(w *Writer, a *Archive) error {
	w.WriteU32(magicArchive)
	w.WriteU32(archiveVersion)
	w.WriteU32(uint32(len(a.order)))
	//
	// Reserve the header table; each row is name-length-prefixed so its
	// on-disk size isn't fixed, meaning offset/size fields are patched by
	// absolute buffer position rather than by index arithmetic.
	rowOffsetFields := make([]int, len(a.order))
	flagsOffsets := make([]int, len(a.order))
	entries := make([]entry, len(a.order))
	//
	for i, name := range a.order {
		w.WriteString(name)
		w.WriteU8(uint8(EntryModule))
		//
		flagsOffsets[i] = w.Len()
		w.WriteU8(0) // flags, patched below
		//
		rowOffsetFields[i] = w.Len()
		w.WriteU32(0) // offset, patched below
		w.WriteU32(0) // size, patched below
		w.WriteU32(0) // raw size, patched below
		entries[i] = entry{Name: name, Kind: EntryModule}
	}
	//
	for i, name := range a.order {
		e := a.entries[name]
		//
		body := NewWriter()
		WriteModule(body, e.mod)
		raw := body.Bytes()
		//
		if len(raw) > maxEntrySize {
			return nzslerrors.New(nzslerrors.Compilation, nzslerrors.CLZ4ModuleTooLarge, source.NoSpan,
				"module %q is %d bytes, exceeding the archive's maximum entry size", name, len(raw))
		}
		//
		payload := raw
		flags := EntryFlags(0)
		//
		if e.compress {
			bound := lz4.CompressBlockBound(len(raw))
			compressed := make([]byte, bound)
			var hc lz4.CompressorHC
			//
			n, cerr := hc.CompressBlock(raw, compressed)
			if cerr == nil && n > 0 && n < len(raw) {
				payload = compressed[:n]
				flags |= CompressedLZ4HC
			}
		}
		//
		offset := uint32(w.Len())
		w.WriteRaw(payload)
		//
		entries[i].Offset = offset
		entries[i].Size = uint32(len(payload))
		entries[i].RawSize = uint32(len(raw))
		entries[i].Flags = flags
		//
		w.PatchU32(rowOffsetFields[i], entries[i].Offset)
		w.PatchU32(rowOffsetFields[i]+4, entries[i].Size)
		w.PatchU32(rowOffsetFields[i]+8, entries[i].RawSize)
		patchFlags(w, flagsOffsets[i], uint8(flags))
	}
	//
	return nil
}

// patchFlags overwrites the single flags byte at off.
func patchFlags(w *Writer, off int, v uint8) {
	w.buf[off] = v
}

// ReadArchive deserializes an archive written by WriteArchive. Every
// module entry is decoded eagerly into the returned map, keyed by name;
// SeekTo-based lazy access is left to callers who keep the raw Reader
// around and re-derive an entry's offset themselves.
func ReadArchive(r *Reader) (map[string]*ir.Module, error) {
	magic, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	if magic != magicArchive {
		return nil, fmt.Errorf("serialize: bad archive magic %#x", magic)
	}
	//
	version, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	if version != archiveVersion {
		return nil, nzslerrors.New(nzslerrors.Compilation, nzslerrors.CUnsupportedBinaryVersion, source.NoSpan,
			"archive version %d unsupported (reader is %d)", version, archiveVersion)
	}
	//
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	//
	entries := make([]entry, count)
	//
	for i := range entries {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		//
		kind, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		flags, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		//
		offset, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		size, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		rawSize, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		//
		entries[i] = entry{
			Name: name, Kind: EntryKind(kind), Flags: EntryFlags(flags),
			Offset: offset, Size: size, RawSize: rawSize,
		}
	}
	//
	out := make(map[string]*ir.Module, len(entries))
	//
	for _, e := range entries {
		r.SeekTo(int(e.Offset))
		//
		payload, err := r.ReadRaw(int(e.Size))
		if err != nil {
			return nil, err
		}
		//
		raw := payload
		//
		if e.Flags&CompressedLZ4HC != 0 {
			decompressed := make([]byte, e.RawSize)
			//
			n, derr := lz4.UncompressBlock(payload, decompressed)
			if derr != nil {
				return nil, fmt.Errorf("serialize: decompressing module %q: %w", e.Name, derr)
			}
			//
			raw = decompressed[:n]
		}
		//
		mr := NewReader(raw)
		//
		mod, err := ReadModule(mr)
		if err != nil {
			return nil, fmt.Errorf("serialize: decoding module %q: %w", e.Name, err)
		}
		//
		out[e.Name] = mod
	}
	//
	return out, nil
}

// Package archivefmt implements the zero-copy binary container the builder
// seals a DataStore into and the runtime loads it back from.
//
// Go has no rkyv. The zero-copy discipline is reproduced with a flat binary
// container: a fixed header (magic, section count) followed by a section
// table of (offset, length) pairs into one contiguous payload. The payload
// is allocated once as a 16-byte-aligned buffer (over-allocated, then sliced
// to the first aligned byte) and held for the process lifetime. Every side
// array — including the two per-lexeme record slices, []model.EntryRecord
// and []model.SenseRecord — is reinterpreted in place via unsafe.Slice, with
// no per-element decode pass: model.EntryRecord/SenseRecord hold no
// pointers (every optional field is a HasX bool plus a plain value), so a
// section of the backing buffer can be cast directly to the public struct
// type. This assumes a little-endian host with a struct layout stable
// between the process that wrote the archive and the one loading it — true
// of every platform this engine targets, since both run the same build.
package archivefmt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"

	"github.com/klauspost/compress/zstd"

	"github.com/standardbeagle/opengloss/internal/model"
)

// ArchiveCompressionLevel is the zstd level applied to the whole serialized
// container, matching original_source/build.rs's ARCHIVE_COMPRESSION_LEVEL.
const ArchiveCompressionLevel = 4

const magic uint32 = 0x4f474131 // "OGA1"

// section names, in a fixed order shared by writer and reader. The order
// itself is the schema; no names are persisted, only offset/length pairs.
var sectionOrder = []string{
	"strings.offsets", "strings.lengths", "strings.data",
	"longtexts.offsets", "longtexts.lengths", "longtexts.data",
	"entries", "senses",
	"entry.parts_of_speech",
	"sense.synonyms", "sense.antonyms", "sense.hypernyms", "sense.hyponyms", "sense.examples",
	"entry.all_definitions", "entry.all_synonyms", "entry.all_antonyms",
	"entry.all_hypernyms", "entry.all_hyponyms", "entry.all_collocations",
	"entry.all_inflections", "entry.all_derivations", "entry.all_examples",
	"entry.etymology_cognates",
	"neighbors.synonym", "neighbors.antonym", "neighbors.hypernym", "neighbors.hyponym",
}

const headerSize = 8 // magic uint32 + sectionCount uint32
const sectionTableEntrySize = 16 // offset uint64 + length uint64

// Build serializes ds into the flat container format (uncompressed) and
// writes it to w.
func Build(ds *model.DataStore, w io.Writer) error {
	sections := map[string][]byte{
		"strings.offsets": uint32sToBytes(ds.Strings.Offsets),
		"strings.lengths": uint32sToBytes(ds.Strings.Lengths),
		"strings.data":    ds.Strings.Data,

		"longtexts.offsets": uint32sToBytes(ds.LongTexts.Offsets),
		"longtexts.lengths": uint32sToBytes(ds.LongTexts.Lengths),
		"longtexts.data":    ds.LongTexts.Data,

		"entries": entriesToBytes(ds.Entries),
		"senses":  sensesToBytes(ds.Senses),

		"entry.parts_of_speech": stringIDsToBytes(ds.EntryPartsOfSpeech),

		"sense.synonyms":  stringIDsToBytes(ds.SenseSynonyms),
		"sense.antonyms":  stringIDsToBytes(ds.SenseAntonyms),
		"sense.hypernyms": stringIDsToBytes(ds.SenseHypernyms),
		"sense.hyponyms":  stringIDsToBytes(ds.SenseHyponyms),
		"sense.examples":  stringIDsToBytes(ds.SenseExamples),

		"entry.all_definitions":  stringIDsToBytes(ds.EntryAllDefinitions),
		"entry.all_synonyms":     stringIDsToBytes(ds.EntryAllSynonyms),
		"entry.all_antonyms":     stringIDsToBytes(ds.EntryAllAntonyms),
		"entry.all_hypernyms":    stringIDsToBytes(ds.EntryAllHypernyms),
		"entry.all_hyponyms":     stringIDsToBytes(ds.EntryAllHyponyms),
		"entry.all_collocations": stringIDsToBytes(ds.EntryAllCollocations),
		"entry.all_inflections":  stringIDsToBytes(ds.EntryAllInflections),
		"entry.all_derivations":  stringIDsToBytes(ds.EntryAllDerivations),
		"entry.all_examples":     stringIDsToBytes(ds.EntryAllExamples),

		"entry.etymology_cognates": stringIDsToBytes(ds.EntryEtymologyCognates),

		"neighbors.synonym":  uint32sToBytes(ds.SynonymNeighbors),
		"neighbors.antonym":  uint32sToBytes(ds.AntonymNeighbors),
		"neighbors.hypernym": uint32sToBytes(ds.HypernymNeighbors),
		"neighbors.hyponym":  uint32sToBytes(ds.HyponymNeighbors),
	}

	offsets := make([]uint64, len(sectionOrder))
	lengths := make([]uint64, len(sectionOrder))

	tableEnd := uint64(headerSize + len(sectionOrder)*sectionTableEntrySize)
	cursor := alignUp64(tableEnd, 16)

	var payload bytes.Buffer
	for i, name := range sectionOrder {
		data := sections[name]
		pad := int(alignUp64(cursor, 16) - cursor)
		payload.Write(make([]byte, pad))
		cursor += uint64(pad)

		offsets[i] = cursor
		lengths[i] = uint64(len(data))
		payload.Write(data)
		cursor += uint64(len(data))
	}

	var header bytes.Buffer
	binary.Write(&header, binary.LittleEndian, magic)
	binary.Write(&header, binary.LittleEndian, uint32(len(sectionOrder)))
	for i := range sectionOrder {
		binary.Write(&header, binary.LittleEndian, offsets[i])
		binary.Write(&header, binary.LittleEndian, lengths[i])
	}
	// header + table is tableEnd bytes; pad up to the first section's
	// aligned start before writing the payload buffer.
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	gap := int(alignUp64(tableEnd, 16) - tableEnd)
	if gap > 0 {
		if _, err := w.Write(make([]byte, gap)); err != nil {
			return err
		}
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// SaveCompressed serializes ds and writes the zstd-compressed container to w,
// at ArchiveCompressionLevel — the "seal" step of the builder.
func SaveCompressed(ds *model.DataStore, w io.Writer) error {
	var raw bytes.Buffer
	if err := Build(ds, &raw); err != nil {
		return fmt.Errorf("archivefmt: serialize: %w", err)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(ArchiveCompressionLevel)))
	if err != nil {
		return fmt.Errorf("archivefmt: zstd writer: %w", err)
	}
	if _, err := enc.Write(raw.Bytes()); err != nil {
		enc.Close()
		return fmt.Errorf("archivefmt: zstd write: %w", err)
	}
	return enc.Close()
}

// Load decompresses r and reconstructs a DataStore whose slice fields are
// zero-copy views over one 16-byte-aligned backing buffer. The buffer is
// returned alongside so the caller (internal/query) can hold a reference and
// keep it alive for the process lifetime.
func Load(r io.Reader) (*model.DataStore, []byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		panic(fmt.Sprintf("archivefmt: corrupt archive, zstd reader: %v", err))
	}
	defer dec.Close()

	compacted, err := io.ReadAll(dec)
	if err != nil {
		panic(fmt.Sprintf("archivefmt: corrupt archive, zstd decode: %v", err))
	}

	buf := newAligned16(len(compacted))
	copy(buf, compacted)

	if len(buf) < headerSize {
		panic("archivefmt: truncated archive header")
	}
	gotMagic := binary.LittleEndian.Uint32(buf[0:4])
	if gotMagic != magic {
		panic("archivefmt: bad archive magic, corrupt build artifact")
	}
	sectionCount := int(binary.LittleEndian.Uint32(buf[4:8]))
	if sectionCount != len(sectionOrder) {
		panic("archivefmt: archive schema mismatch, rebuild required")
	}

	offsets := make([]uint64, sectionCount)
	lengths := make([]uint64, sectionCount)
	for i := 0; i < sectionCount; i++ {
		base := headerSize + i*sectionTableEntrySize
		offsets[i] = binary.LittleEndian.Uint64(buf[base : base+8])
		lengths[i] = binary.LittleEndian.Uint64(buf[base+8 : base+16])
	}

	section := func(name string) []byte {
		for i, n := range sectionOrder {
			if n == name {
				start := offsets[i]
				end := start + lengths[i]
				if end > uint64(len(buf)) {
					panic(fmt.Sprintf("archivefmt: section %q out of bounds, corrupt archive", name))
				}
				return buf[start:end]
			}
		}
		panic(fmt.Sprintf("archivefmt: missing section %q, corrupt archive", name))
	}

	ds := &model.DataStore{
		Strings: model.PackedStrings{
			Offsets: uint32View(section("strings.offsets")),
			Lengths: uint32View(section("strings.lengths")),
			Data:    section("strings.data"),
		},
		LongTexts: model.CompressedTextStore{
			Offsets: uint32View(section("longtexts.offsets")),
			Lengths: uint32View(section("longtexts.lengths")),
			Data:    section("longtexts.data"),
		},
		Entries: entriesFromBytes(section("entries")),
		Senses:  sensesFromBytes(section("senses")),

		EntryPartsOfSpeech: stringIDsFromBytes(section("entry.parts_of_speech")),

		SenseSynonyms:  stringIDsFromBytes(section("sense.synonyms")),
		SenseAntonyms:  stringIDsFromBytes(section("sense.antonyms")),
		SenseHypernyms: stringIDsFromBytes(section("sense.hypernyms")),
		SenseHyponyms:  stringIDsFromBytes(section("sense.hyponyms")),
		SenseExamples:  stringIDsFromBytes(section("sense.examples")),

		EntryAllDefinitions:  stringIDsFromBytes(section("entry.all_definitions")),
		EntryAllSynonyms:     stringIDsFromBytes(section("entry.all_synonyms")),
		EntryAllAntonyms:     stringIDsFromBytes(section("entry.all_antonyms")),
		EntryAllHypernyms:    stringIDsFromBytes(section("entry.all_hypernyms")),
		EntryAllHyponyms:     stringIDsFromBytes(section("entry.all_hyponyms")),
		EntryAllCollocations: stringIDsFromBytes(section("entry.all_collocations")),
		EntryAllInflections:  stringIDsFromBytes(section("entry.all_inflections")),
		EntryAllDerivations:  stringIDsFromBytes(section("entry.all_derivations")),
		EntryAllExamples:     stringIDsFromBytes(section("entry.all_examples")),

		EntryEtymologyCognates: stringIDsFromBytes(section("entry.etymology_cognates")),

		SynonymNeighbors:  uint32View(section("neighbors.synonym")),
		AntonymNeighbors:  uint32View(section("neighbors.antonym")),
		HypernymNeighbors: uint32View(section("neighbors.hypernym")),
		HyponymNeighbors:  uint32View(section("neighbors.hyponym")),
	}

	return ds, buf, nil
}

func alignUp64(n uint64, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

// newAligned16 allocates n bytes with the start of the returned slice
// 16-byte aligned, by over-allocating and slicing to the first aligned
// offset — the pattern spec.md §9 calls for.
func newAligned16(n int) []byte {
	const align = 16
	raw := make([]byte, n+align)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	pad := (align - int(addr%align)) % align
	return raw[pad : pad+n]
}

func uint32sToBytes(s []uint32) []byte {
	b := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	return b
}

func uint32View(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 4
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), n)
}

func stringIDsToBytes(s []model.StringId) []byte {
	b := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(v))
	}
	return b
}

func stringIDsFromBytes(b []byte) []model.StringId {
	if len(b) == 0 {
		return nil
	}
	n := len(b) / 4
	return unsafe.Slice((*model.StringId)(unsafe.Pointer(&b[0])), n)
}

// entriesToBytes reinterprets entries as raw bytes via unsafe.Slice and
// copies them into the section payload. model.EntryRecord holds no
// pointers, so this is a flat memory copy, not a field-by-field encode.
func entriesToBytes(entries []model.EntryRecord) []byte {
	if len(entries) == 0 {
		return nil
	}
	stride := int(unsafe.Sizeof(model.EntryRecord{}))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&entries[0])), len(entries)*stride)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// entriesFromBytes reinterprets a section of the archive's backing buffer
// directly as a []model.EntryRecord — no allocation, no per-element decode.
// The returned slice aliases b, so it is only valid as long as b (ultimately
// the aligned buffer Load allocates) is kept alive.
func entriesFromBytes(b []byte) []model.EntryRecord {
	if len(b) == 0 {
		return nil
	}
	stride := int(unsafe.Sizeof(model.EntryRecord{}))
	if len(b)%stride != 0 {
		panic("archivefmt: entries section has invalid length, corrupt archive")
	}
	n := len(b) / stride
	return unsafe.Slice((*model.EntryRecord)(unsafe.Pointer(&b[0])), n)
}

// sensesToBytes is entriesToBytes' counterpart for model.SenseRecord.
func sensesToBytes(senses []model.SenseRecord) []byte {
	if len(senses) == 0 {
		return nil
	}
	stride := int(unsafe.Sizeof(model.SenseRecord{}))
	b := unsafe.Slice((*byte)(unsafe.Pointer(&senses[0])), len(senses)*stride)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// sensesFromBytes is entriesFromBytes' counterpart for model.SenseRecord.
func sensesFromBytes(b []byte) []model.SenseRecord {
	if len(b) == 0 {
		return nil
	}
	stride := int(unsafe.Sizeof(model.SenseRecord{}))
	if len(b)%stride != 0 {
		panic("archivefmt: senses section has invalid length, corrupt archive")
	}
	n := len(b) / stride
	return unsafe.Slice((*model.SenseRecord)(unsafe.Pointer(&b[0])), n)
}

// Package builder implements the offline ingestion pipeline from spec.md
// §4.1: parse a lexeme table and a JSON-lines entry stream, intern strings
// and texts, resolve neighbor names against the lexeme map, and seal the
// result into an archivefmt container. Grounded on original_source/build.rs.
package builder

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/standardbeagle/opengloss/internal/fstindex"
	"github.com/standardbeagle/opengloss/internal/model"
	"github.com/standardbeagle/opengloss/internal/ogerrors"
)

// Compression levels, carried over exactly from original_source/build.rs.
const (
	LongTextCompressionLevel = 5
	StringCompressionLevel   = 5
)

// LexemeRow is one parsed row of the lexeme table.
type LexemeRow struct {
	Word string
	ID   uint32
}

// ParseLexemeTSV reads a tab-delimited lexeme table: one row per lexeme as
// "lexeme_id<TAB>word[<TAB>extras...]", with an optional header line whose
// first field is literally "lexeme_id". Rows with an empty word are
// skipped, matching original_source/build.rs's load_lexemes.
func ParseLexemeTSV(r io.Reader) ([]LexemeRow, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var rows []LexemeRow
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNo++
		if lineNo == 1 && strings.HasPrefix(line, "lexeme_id") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 2 {
			return nil, ogerrors.NewBuildError("parse_lexemes", lineNo, "expected at least lexeme_id and word", nil)
		}
		word := parts[1]
		if word == "" {
			continue
		}
		id, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return nil, ogerrors.NewBuildError("parse_lexemes", lineNo, fmt.Sprintf("invalid lexeme_id %q", parts[0]), err)
		}
		rows = append(rows, LexemeRow{Word: word, ID: uint32(id)})
	}
	if err := scanner.Err(); err != nil {
		return nil, ogerrors.NewBuildError("parse_lexemes", lineNo, "scan failed", err)
	}
	return rows, nil
}

// SortAndValidate sorts rows by (word, id) and fails on duplicate words, per
// spec.md §4.1 step 1. The input slice is sorted in place and returned.
func SortAndValidate(rows []LexemeRow) ([]LexemeRow, error) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Word != rows[j].Word {
			return rows[i].Word < rows[j].Word
		}
		return rows[i].ID < rows[j].ID
	})
	for i := 1; i < len(rows); i++ {
		if rows[i].Word == rows[i-1].Word {
			return nil, ogerrors.NewBuildError("validate_lexemes", 0, fmt.Sprintf("duplicate lexeme word %q", rows[i].Word), nil)
		}
	}
	return rows, nil
}

// senseJSON mirrors original_source/build.rs's SenseJson.
type senseJSON struct {
	PartOfSpeech *string  `json:"part_of_speech"`
	SenseIndex   *int32   `json:"sense_index"`
	Definition   *string  `json:"definition"`
	Synonyms     []string `json:"synonyms"`
	Antonyms     []string `json:"antonyms"`
	Hypernyms    []string `json:"hypernyms"`
	Hyponyms     []string `json:"hyponyms"`
	Examples     []string `json:"examples"`
}

// entryJSON mirrors original_source/build.rs's EntryJson.
type entryJSON struct {
	LexemeID          uint32      `json:"lexeme_id"`
	EntryID           string      `json:"entry_id"`
	Word              string      `json:"word"`
	Text              *string     `json:"text"`
	IsStopword        bool        `json:"is_stopword"`
	StopwordReason    *string     `json:"stopword_reason"`
	PartsOfSpeech     []string    `json:"parts_of_speech"`
	Senses            []senseJSON `json:"senses"`
	HasEtymology      bool        `json:"has_etymology"`
	EtymologySummary  *string     `json:"etymology_summary"`
	EtymologyCognates []string    `json:"etymology_cognates"`
	HasEncyclopedia   bool        `json:"has_encyclopedia"`
	EncyclopediaEntry *string     `json:"encyclopedia_entry"`
	AllDefinitions    []string    `json:"all_definitions"`
	AllSynonyms       []string    `json:"all_synonyms"`
	AllAntonyms       []string    `json:"all_antonyms"`
	AllHypernyms      []string    `json:"all_hypernyms"`
	AllHyponyms       []string    `json:"all_hyponyms"`
	AllCollocations   []string    `json:"all_collocations"`
	AllInflections    []string    `json:"all_inflections"`
	AllDerivations    []string    `json:"all_derivations"`
	AllExamples       []string    `json:"all_examples"`
}

// stringTable is an exact-byte-dedup interner compressing every value with
// zstd at level and exposing a model.PackedStrings once sealed.
type stringTable struct {
	enc     *zstd.Encoder
	byValue map[string]uint32
	offsets []uint32
	lengths []uint32
	data    []byte
}

func newStringTable(level zstd.EncoderLevel) (*stringTable, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("builder: new zstd encoder: %w", err)
	}
	return &stringTable{enc: enc, byValue: make(map[string]uint32)}, nil
}

func (t *stringTable) intern(value string) uint32 {
	if id, ok := t.byValue[value]; ok {
		return id
	}
	compressed := t.enc.EncodeAll([]byte(value), nil)
	id := uint32(len(t.offsets))
	t.offsets = append(t.offsets, uint32(len(t.data)))
	t.lengths = append(t.lengths, uint32(len(compressed)))
	t.data = append(t.data, compressed...)
	t.byValue[value] = id
	return id
}

// internOptFlag interns value if present, returning (false, 0) for a nil
// value. model.EntryRecord/SenseRecord carry optional string references as
// a HasX bool plus a plain StringId rather than a pointer, so this is the
// shape every optional-field call site wants.
func (t *stringTable) internOptFlag(value *string) (bool, model.StringId) {
	if value == nil {
		return false, 0
	}
	return true, model.StringId(t.intern(*value))
}

func (t *stringTable) pushAll(target *[]model.StringId, values []string) model.Range {
	start := uint32(len(*target))
	for _, v := range values {
		*target = append(*target, model.StringId(t.intern(v)))
	}
	return model.Range{Start: start, Len: uint32(len(*target)) - start}
}

func (t *stringTable) intoPacked() model.PackedStrings {
	return model.PackedStrings{Offsets: t.offsets, Lengths: t.lengths, Data: t.data}
}

// textTable is the long-form counterpart to stringTable, sharing the same
// exact-byte-dedup discipline but addressing TextId instead of StringId.
type textTable struct {
	enc     *zstd.Encoder
	byValue map[string]uint32
	offsets []uint32
	lengths []uint32
	data    []byte
}

func newTextTable(level zstd.EncoderLevel) (*textTable, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("builder: new zstd encoder: %w", err)
	}
	return &textTable{enc: enc, byValue: make(map[string]uint32)}, nil
}

func (t *textTable) intern(value string) uint32 {
	if id, ok := t.byValue[value]; ok {
		return id
	}
	compressed := t.enc.EncodeAll([]byte(value), nil)
	id := uint32(len(t.offsets))
	t.offsets = append(t.offsets, uint32(len(t.data)))
	t.lengths = append(t.lengths, uint32(len(compressed)))
	t.data = append(t.data, compressed...)
	t.byValue[value] = id
	return id
}

// internOptFlag is stringTable.internOptFlag's counterpart for TextId.
func (t *textTable) internOptFlag(value *string) (bool, model.TextId) {
	if value == nil {
		return false, 0
	}
	return true, model.TextId(t.intern(*value))
}

func (t *textTable) intoStore() model.CompressedTextStore {
	return model.CompressedTextStore{Offsets: t.offsets, Lengths: t.lengths, Data: t.data}
}

// pushNeighbors resolves each name against lookup, appending only the
// names that resolve (spec.md §3's "neighbor lists are resolved" invariant:
// unresolved names are silently dropped, never stored as a dangling id).
func pushNeighbors(lookup map[string]uint32, target *[]uint32, names []string) model.Range {
	start := uint32(len(*target))
	for _, name := range names {
		if id, ok := lookup[name]; ok {
			*target = append(*target, id)
		}
	}
	return model.Range{Start: start, Len: uint32(len(*target)) - start}
}

// dataBuilder accumulates entries and their side arrays in lexeme_id order.
type dataBuilder struct {
	strings   *stringTable
	longTexts *textTable
	lookup    map[string]uint32

	entries []model.EntryRecord
	senses  []model.SenseRecord

	entryPartsOfSpeech     []model.StringId
	senseSynonyms          []model.StringId
	senseAntonyms          []model.StringId
	senseHypernyms         []model.StringId
	senseHyponyms          []model.StringId
	senseExamples          []model.StringId
	entryAllDefinitions    []model.StringId
	entryAllSynonyms       []model.StringId
	entryAllAntonyms       []model.StringId
	entryAllHypernyms      []model.StringId
	entryAllHyponyms       []model.StringId
	entryAllCollocations   []model.StringId
	entryAllInflections    []model.StringId
	entryAllDerivations    []model.StringId
	entryAllExamples       []model.StringId
	entryEtymologyCognates []model.StringId

	synonymNeighbors  []uint32
	antonymNeighbors  []uint32
	hypernymNeighbors []uint32
	hyponymNeighbors  []uint32
}

func newDataBuilder(lookup map[string]uint32) (*dataBuilder, error) {
	strTable, err := newStringTable(zstd.EncoderLevelFromZstd(StringCompressionLevel))
	if err != nil {
		return nil, err
	}
	textTbl, err := newTextTable(zstd.EncoderLevelFromZstd(LongTextCompressionLevel))
	if err != nil {
		return nil, err
	}
	return &dataBuilder{strings: strTable, longTexts: textTbl, lookup: lookup}, nil
}

func (b *dataBuilder) addEntry(e entryJSON, lineNo int) error {
	expected := uint32(len(b.entries))
	if e.LexemeID != expected {
		return ogerrors.NewBuildError("parse_entries", lineNo,
			fmt.Sprintf("entries must be ordered by lexeme_id (expected %d, got %d)", expected, e.LexemeID), nil)
	}

	wordID := model.StringId(b.strings.intern(e.Word))
	entryID := model.StringId(b.strings.intern(e.EntryID))
	hasText, textID := b.longTexts.internOptFlag(e.Text)
	hasStopwordReason, stopwordReason := b.strings.internOptFlag(e.StopwordReason)
	hasEtymologySummary, etymologySummary := b.strings.internOptFlag(e.EtymologySummary)
	hasEncyclopediaEntry, encyclopediaEntry := b.longTexts.internOptFlag(e.EncyclopediaEntry)

	partsOfSpeech := b.strings.pushAll(&b.entryPartsOfSpeech, e.PartsOfSpeech)
	sensesRange := b.pushSenses(e.LexemeID, e.Senses)
	etymologyCognates := b.strings.pushAll(&b.entryEtymologyCognates, e.EtymologyCognates)

	synonymNeighbors := pushNeighbors(b.lookup, &b.synonymNeighbors, e.AllSynonyms)
	antonymNeighbors := pushNeighbors(b.lookup, &b.antonymNeighbors, e.AllAntonyms)
	hypernymNeighbors := pushNeighbors(b.lookup, &b.hypernymNeighbors, e.AllHypernyms)
	hyponymNeighbors := pushNeighbors(b.lookup, &b.hyponymNeighbors, e.AllHyponyms)

	allDefinitions := b.strings.pushAll(&b.entryAllDefinitions, e.AllDefinitions)
	allSynonyms := b.strings.pushAll(&b.entryAllSynonyms, e.AllSynonyms)
	allAntonyms := b.strings.pushAll(&b.entryAllAntonyms, e.AllAntonyms)
	allHypernyms := b.strings.pushAll(&b.entryAllHypernyms, e.AllHypernyms)
	allHyponyms := b.strings.pushAll(&b.entryAllHyponyms, e.AllHyponyms)
	allCollocations := b.strings.pushAll(&b.entryAllCollocations, e.AllCollocations)
	allInflections := b.strings.pushAll(&b.entryAllInflections, e.AllInflections)
	allDerivations := b.strings.pushAll(&b.entryAllDerivations, e.AllDerivations)
	allExamples := b.strings.pushAll(&b.entryAllExamples, e.AllExamples)

	b.entries = append(b.entries, model.EntryRecord{
		LexemeID:             e.LexemeID,
		Word:                 wordID,
		EntryID:              entryID,
		HasText:              hasText,
		Text:                 textID,
		IsStopword:           e.IsStopword,
		HasStopwordReason:    hasStopwordReason,
		StopwordReason:       stopwordReason,
		PartsOfSpeech:        partsOfSpeech,
		Senses:               sensesRange,
		HasEtymology:         e.HasEtymology,
		HasEtymologySummary:  hasEtymologySummary,
		EtymologySummary:     etymologySummary,
		EtymologyCognates:    etymologyCognates,
		HasEncyclopedia:      e.HasEncyclopedia && hasEncyclopediaEntry,
		HasEncyclopediaEntry: hasEncyclopediaEntry,
		EncyclopediaEntry:    encyclopediaEntry,
		AllDefinitions:       allDefinitions,
		AllSynonyms:          allSynonyms,
		AllAntonyms:          allAntonyms,
		AllHypernyms:         allHypernyms,
		AllHyponyms:          allHyponyms,
		AllCollocations:      allCollocations,
		AllInflections:       allInflections,
		AllDerivations:       allDerivations,
		AllExamples:          allExamples,
		SynonymNeighbors:     synonymNeighbors,
		AntonymNeighbors:     antonymNeighbors,
		HypernymNeighbors:    hypernymNeighbors,
		HyponymNeighbors:     hyponymNeighbors,
	})
	return nil
}

func (b *dataBuilder) pushSenses(lexemeID uint32, senses []senseJSON) model.Range {
	start := uint32(len(b.senses))
	for _, s := range senses {
		senseIndex := int32(-1)
		if s.SenseIndex != nil {
			senseIndex = *s.SenseIndex
		}
		hasPOS, pos := b.strings.internOptFlag(s.PartOfSpeech)
		hasDef, def := b.strings.internOptFlag(s.Definition)
		b.senses = append(b.senses, model.SenseRecord{
			LexemeID:        lexemeID,
			HasPartOfSpeech: hasPOS,
			PartOfSpeech:    pos,
			SenseIndex:      senseIndex,
			HasDefinition:   hasDef,
			Definition:      def,
			Synonyms:        b.strings.pushAll(&b.senseSynonyms, s.Synonyms),
			Antonyms:        b.strings.pushAll(&b.senseAntonyms, s.Antonyms),
			Hypernyms:       b.strings.pushAll(&b.senseHypernyms, s.Hypernyms),
			Hyponyms:        b.strings.pushAll(&b.senseHyponyms, s.Hyponyms),
			Examples:        b.strings.pushAll(&b.senseExamples, s.Examples),
		})
	}
	return model.Range{Start: start, Len: uint32(len(b.senses)) - start}
}

func (b *dataBuilder) finish(expectedEntries int) (*model.DataStore, error) {
	if len(b.entries) != expectedEntries {
		return nil, ogerrors.NewBuildError("seal", 0,
			fmt.Sprintf("expected %d entries, found %d", expectedEntries, len(b.entries)), nil)
	}
	return &model.DataStore{
		Strings:                b.strings.intoPacked(),
		LongTexts:              b.longTexts.intoStore(),
		Entries:                b.entries,
		Senses:                 b.senses,
		EntryPartsOfSpeech:     b.entryPartsOfSpeech,
		SenseSynonyms:          b.senseSynonyms,
		SenseAntonyms:          b.senseAntonyms,
		SenseHypernyms:         b.senseHypernyms,
		SenseHyponyms:          b.senseHyponyms,
		SenseExamples:          b.senseExamples,
		EntryAllDefinitions:    b.entryAllDefinitions,
		EntryAllSynonyms:       b.entryAllSynonyms,
		EntryAllAntonyms:       b.entryAllAntonyms,
		EntryAllHypernyms:      b.entryAllHypernyms,
		EntryAllHyponyms:       b.entryAllHyponyms,
		EntryAllCollocations:   b.entryAllCollocations,
		EntryAllInflections:    b.entryAllInflections,
		EntryAllDerivations:    b.entryAllDerivations,
		EntryAllExamples:       b.entryAllExamples,
		EntryEtymologyCognates: b.entryEtymologyCognates,
		SynonymNeighbors:       b.synonymNeighbors,
		AntonymNeighbors:       b.antonymNeighbors,
		HypernymNeighbors:      b.hypernymNeighbors,
		HyponymNeighbors:       b.hyponymNeighbors,
	}, nil
}

// Sources points at the two inputs required to build an archive. EntryGlobs
// is a doublestar pattern (e.g. "entries-*.jsonl") matched and concatenated
// in lexicographic shard order before the lexeme_id ordering check — a
// supplement over the original single-file original_source/build.rs,
// motivated by spec.md §1's mention of 150k-lexeme corpora.
type Sources struct {
	LexemeTSVPath string
	EntryGlobs    string
}

// Result is everything a build produces: the sealed DataStore (for callers
// that want to inspect it) and the built FST, ready to hand to
// archivefmt.SaveCompressed and fstindex bytes on disk respectively.
type Result struct {
	Store    *model.DataStore
	FSTBytes []byte
}

// Build runs the full pipeline: parse+sort+validate the lexeme table,
// resolve entry shards, intern strings/texts, resolve neighbors, and emit
// the FST. Any parse error, out-of-order entry, duplicate word, or missing
// file aborts with a *ogerrors.BuildError, per spec.md §4.1's failure
// semantics.
func Build(src Sources) (*Result, error) {
	lexemeFile, err := os.Open(src.LexemeTSVPath)
	if err != nil {
		return nil, ogerrors.NewBuildError("open_lexemes", 0, "cannot open lexeme file", err)
	}
	defer lexemeFile.Close()

	rows, err := ParseLexemeTSV(lexemeFile)
	if err != nil {
		return nil, err
	}
	rows, err = SortAndValidate(rows)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ogerrors.NewBuildError("validate_lexemes", 0, "no lexemes parsed", nil)
	}

	fstBuilder, err := fstindex.NewBuilder()
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}
	lookup := make(map[string]uint32, len(rows))
	for _, row := range rows {
		if err := fstBuilder.Insert(row.Word, row.ID); err != nil {
			return nil, ogerrors.NewBuildError("build_fst", 0, "fst insert failed", err)
		}
		lookup[row.Word] = row.ID
	}
	fstBytes, err := fstBuilder.Finish()
	if err != nil {
		return nil, ogerrors.NewBuildError("build_fst", 0, "fst finish failed", err)
	}

	entryPaths, err := shardPaths(src.EntryGlobs)
	if err != nil {
		return nil, ogerrors.NewBuildError("open_entries", 0, "glob failed", err)
	}
	if len(entryPaths) == 0 {
		return nil, ogerrors.NewBuildError("open_entries", 0, "no entry shards matched "+src.EntryGlobs, nil)
	}

	db, err := newDataBuilder(lookup)
	if err != nil {
		return nil, fmt.Errorf("builder: %w", err)
	}

	lineNo := 0
	expectedLexemeCount := len(rows)
	for _, path := range entryPaths {
		if err := ingestEntryShard(db, path, &lineNo); err != nil {
			return nil, err
		}
	}

	store, err := db.finish(expectedLexemeCount)
	if err != nil {
		return nil, err
	}

	return &Result{Store: store, FSTBytes: fstBytes}, nil
}

func shardPaths(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		if _, err := os.Stat(pattern); err != nil {
			return nil, err
		}
		return []string{pattern}, nil
	}
	dir, rel := splitGlobDir(pattern)
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, rel)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = filepath.Join(dir, m)
	}
	return out, nil
}

// splitGlobDir splits a path pattern into the longest wildcard-free leading
// directory and the remaining doublestar pattern relative to it, so the
// pattern can be matched against an os.DirFS rooted at a real directory.
func splitGlobDir(pattern string) (dir, rel string) {
	pattern = filepath.ToSlash(pattern)
	segments := strings.Split(pattern, "/")
	cut := len(segments)
	for i, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			cut = i
			break
		}
	}
	if cut == 0 {
		return ".", pattern
	}
	return strings.Join(segments[:cut], "/"), strings.Join(segments[cut:], "/")
}

func ingestEntryShard(db *dataBuilder, path string, lineNo *int) error {
	f, err := os.Open(path)
	if err != nil {
		return ogerrors.NewBuildError("open_entries", *lineNo, "cannot open "+path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8<<20)
	for scanner.Scan() {
		*lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e entryJSON
		if err := json.Unmarshal(line, &e); err != nil {
			return ogerrors.NewBuildError("parse_entries", *lineNo, "invalid JSON line", err)
		}
		if err := db.addEntry(e, *lineNo); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return ogerrors.NewBuildError("parse_entries", *lineNo, "scan failed", err)
	}
	return nil
}

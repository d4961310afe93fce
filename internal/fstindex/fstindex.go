// Package fstindex wraps a vellum finite-state transducer as the sorted
// word -> lexeme_id map described in spec.md §4.4: exact lookup and
// prefix-ordered enumeration, built once at build time and memory-resident
// at runtime.
package fstindex

import (
	"bytes"
	"fmt"

	"github.com/blevesearch/vellum"
)

// Index is a read-only, already-built FST.
type Index struct {
	fst *vellum.FST
}

// Builder accumulates sorted (word, lexeme_id) pairs and emits FST bytes.
// Keys MUST be inserted in strictly increasing lexicographic order — the
// same discipline internal/builder already applies when it sorts lexeme
// rows by (word, id).
type Builder struct {
	buf     bytes.Buffer
	builder *vellum.Builder
}

// NewBuilder starts a fresh FST build.
func NewBuilder() (*Builder, error) {
	b := &Builder{}
	vb, err := vellum.New(&b.buf, nil)
	if err != nil {
		return nil, fmt.Errorf("fstindex: new builder: %w", err)
	}
	b.builder = vb
	return b, nil
}

// Insert adds one (word, lexeme_id) pair. Words must arrive sorted.
func (b *Builder) Insert(word string, lexemeID uint32) error {
	if err := b.builder.Insert([]byte(word), uint64(lexemeID)); err != nil {
		return fmt.Errorf("fstindex: insert %q: %w", word, err)
	}
	return nil
}

// Finish closes the builder and returns the serialized FST bytes.
func (b *Builder) Finish() ([]byte, error) {
	if err := b.builder.Close(); err != nil {
		return nil, fmt.Errorf("fstindex: close: %w", err)
	}
	return b.buf.Bytes(), nil
}

// Load wraps already-built FST bytes for querying.
func Load(data []byte) (*Index, error) {
	fst, err := vellum.Load(data)
	if err != nil {
		return nil, fmt.Errorf("fstindex: load: %w", err)
	}
	return &Index{fst: fst}, nil
}

// Get performs an exact lookup, returning (lexeme_id, true) on a hit.
func (idx *Index) Get(word string) (uint32, bool) {
	v, exists, err := idx.fst.Get([]byte(word))
	if err != nil || !exists {
		return 0, false
	}
	return uint32(v), true
}

// WordID is one (word, lexeme_id) pair streamed out of the FST.
type WordID struct {
	Word     string
	LexemeID uint32
}

// Prefix streams up to limit lexemes whose word starts with prefix, in
// lexicographic order.
func (idx *Index) Prefix(prefix string, limit int) []WordID {
	if limit <= 0 {
		return nil
	}
	start := []byte(prefix)
	end := prefixUpperBound(start)

	it, err := idx.fst.Search(vellum.AlwaysMatch{}, start, end)
	return idx.drain(it, err, limit)
}

// AllWords streams the entire keyset in lexicographic order. Supplemented
// per SPEC_FULL.md §6.1 (original_source/src/telemetry.rs's random-lexeme
// selection over LexemeIndex::all_words()).
func (idx *Index) AllWords() []WordID {
	it, err := idx.fst.Search(vellum.AlwaysMatch{}, nil, nil)
	return idx.drain(it, err, 0)
}

func (idx *Index) drain(it *vellum.FSTIterator, err error, limit int) []WordID {
	if err != nil {
		return nil
	}
	var out []WordID
	for err == nil {
		key, val := it.Current()
		out = append(out, WordID{Word: string(key), LexemeID: uint32(val)})
		if limit > 0 && len(out) >= limit {
			break
		}
		err = it.Next()
	}
	return out
}

// prefixUpperBound returns the lexicographically smallest key that is
// strictly greater than every key with the given prefix, or nil if the
// range is unbounded (prefix is empty or all 0xff bytes).
func prefixUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

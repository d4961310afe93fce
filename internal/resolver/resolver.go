// Package resolver turns StringId/TextId references into Go strings.
//
// Short strings (PackedStrings) are memoized per-id with first-writer-wins
// semantics: golang.org/x/sync/singleflight collapses concurrent
// decompressions of the same id into one call, and an atomic.Pointer slot
// array lets every later reader skip locking entirely. Long texts
// (CompressedTextStore) are decompressed fresh on every call and never
// cached — per spec.md §4.3, they are large and rarely re-read, so caching
// them would cost more than it saves.
package resolver

import (
	"strconv"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"

	"github.com/standardbeagle/opengloss/internal/model"
	"github.com/standardbeagle/opengloss/internal/ogerrors"
)

var sharedDecoder *zstd.Decoder

func init() {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic("resolver: failed to build shared zstd decoder: " + err.Error())
	}
	sharedDecoder = dec
}

// Resolver resolves StringId/TextId references against one DataStore.
type Resolver struct {
	store *model.DataStore
	slots []atomic.Pointer[string]
	group singleflight.Group
}

// New builds a resolver over ds, sizing the memoization slot array to the
// string pool.
func New(ds *model.DataStore) *Resolver {
	return &Resolver{
		store: ds,
		slots: make([]atomic.Pointer[string], len(ds.Strings.Offsets)),
	}
}

// String resolves a short StringId, memoizing the result.
func (r *Resolver) String(id model.StringId) string {
	idx := int(id)
	if idx < 0 || idx >= len(r.slots) {
		ogerrors.Abort(ogerrors.CategoryCorruption, "resolver: string id %d out of range", id)
	}
	if p := r.slots[idx].Load(); p != nil {
		return *p
	}

	v, _, _ := r.group.Do(strconv.Itoa(idx), func() (interface{}, error) {
		if p := r.slots[idx].Load(); p != nil {
			return *p, nil
		}
		s := r.decompressShort(idx)
		r.slots[idx].CompareAndSwap(nil, &s)
		return *r.slots[idx].Load(), nil
	})
	return v.(string)
}

// OptString resolves id only when present is true, returning ("", false)
// otherwise. model.EntryRecord/SenseRecord carry optional string references
// as a HasX bool plus a plain StringId rather than a pointer, so callers
// pass both straight through.
func (r *Resolver) OptString(id model.StringId, present bool) (string, bool) {
	if !present {
		return "", false
	}
	return r.String(id), true
}

// LongText resolves a TextId with no memoization.
func (r *Resolver) LongText(id model.TextId) string {
	idx := int(id)
	store := r.store.LongTexts
	if idx < 0 || idx >= len(store.Offsets) {
		ogerrors.Abort(ogerrors.CategoryCorruption, "resolver: text id %d out of range", id)
	}
	start := store.Offsets[idx]
	length := store.Lengths[idx]
	compressed := store.Data[start : start+length]
	out, err := sharedDecoder.DecodeAll(compressed, nil)
	if err != nil {
		ogerrors.Abort(ogerrors.CategoryCorruption, "resolver: long text %d decompress: %v", id, err)
	}
	return string(out)
}

// OptLongText resolves id only when present is true, returning ("", false)
// otherwise.
func (r *Resolver) OptLongText(id model.TextId, present bool) (string, bool) {
	if !present {
		return "", false
	}
	return r.LongText(id), true
}

// StringList resolves every StringId in a Range drawn from bucket.
func (r *Resolver) StringList(bucket []model.StringId, rng model.Range) []string {
	ids := model.Slice(bucket, rng)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.String(id)
	}
	return out
}

func (r *Resolver) decompressShort(idx int) string {
	pool := r.store.Strings
	start := pool.Offsets[idx]
	length := pool.Lengths[idx]
	compressed := pool.Data[start : start+length]
	out, err := sharedDecoder.DecodeAll(compressed, nil)
	if err != nil {
		ogerrors.Abort(ogerrors.CategoryCorruption, "resolver: string %d decompress: %v", idx, err)
	}
	return string(out)
}

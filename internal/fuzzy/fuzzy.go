// Package fuzzy implements the weighted multi-field fuzzy ranker from
// spec.md §4.6: per-field Indel similarity, a weighted convex combination
// across fields, a bounded LRU result cache, and a parallel fork/join
// bounded top-k.
package fuzzy

import (
	"container/heap"
	"math"
	"runtime"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/hbollon/go-edlib"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/opengloss/internal/config"
)

// EntryFields is the resolved, scoreable view of one entry — everything the
// ranker needs, already pulled out of the archive by the caller so this
// package stays decoupled from internal/resolver and internal/model.
type EntryFields struct {
	LexemeID        uint32
	Word            string
	Definitions     []string
	Synonyms        []string
	Text            string
	HasText         bool
	Encyclopedia    string
	HasEncyclopedia bool
}

// FieldProvider supplies the scoreable fields for a lexeme id. Implemented
// by internal/query over the resolver and archive.
type FieldProvider interface {
	Fields(lexemeID uint32) EntryFields
	Count() int
}

// SearchResult is one ranked fuzzy match.
type SearchResult struct {
	LexemeID uint32
	Word     string
	Score    float64
}

// field is one scoreable dimension with its weight and value extractor.
type field struct {
	name   string
	weight float64
	score  func(query string, f EntryFields) (value float64, sample string)
}

func fields(query string, cfg config.FuzzyWeights) []field {
	return []field{
		{"word", cfg.Word, func(q string, f EntryFields) (float64, string) {
			return IndelRatio(q, f.Word), f.Word
		}},
		{"definitions", cfg.Definitions, func(q string, f EntryFields) (float64, string) {
			return bestWithSample(q, f.Definitions)
		}},
		{"synonyms", cfg.Synonyms, func(q string, f EntryFields) (float64, string) {
			return bestWithSample(q, f.Synonyms)
		}},
		{"text", cfg.Text, func(q string, f EntryFields) (float64, string) {
			if !f.HasText {
				return 0, ""
			}
			return IndelRatio(q, f.Text), f.Text
		}},
		{"encyclopedia", cfg.Encyclopedia, func(q string, f EntryFields) (float64, string) {
			if !f.HasEncyclopedia {
				return 0, ""
			}
			return IndelRatio(q, f.Encyclopedia), f.Encyclopedia
		}},
	}
}

func bestWithSample(query string, items []string) (float64, string) {
	best := 0.0
	sample := ""
	for _, item := range items {
		if r := IndelRatio(query, item); r > best {
			best = r
			sample = item
		}
	}
	return best, sample
}

// score computes the weighted convex combination over all weight>0 fields.
// Returns 0 when no field has a positive weight.
func score(query string, f EntryFields, cfg config.FuzzyWeights) float64 {
	var num, den float64
	for _, fl := range fields(query, cfg) {
		if fl.weight <= 0 {
			continue
		}
		v, _ := fl.score(query, f)
		num += v * fl.weight
		den += fl.weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Ranker owns the result cache and fans scoring work out across workers.
type Ranker struct {
	provider FieldProvider
	cache    *lru.Cache[uint64, []SearchResult]
}

// New builds a ranker over provider with a result cache of the given
// capacity.
func New(provider FieldProvider, cacheSize int) *Ranker {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	c, err := lru.New[uint64, []SearchResult](cacheSize)
	if err != nil {
		panic("fuzzy: failed to build LRU cache: " + err.Error())
	}
	return &Ranker{provider: provider, cache: c}
}

// CacheKey hashes the query, limit, and the config's raw IEEE-754 bit
// patterns (not numeric equality) so NaN weights produce stable, distinct
// keys, per spec.md §9's "Config identity" note.
func CacheKey(query string, cfg config.FuzzyWeights, limit int) uint64 {
	h := xxhash.New()
	h.WriteString(query)
	h.WriteString("|")
	h.WriteString(strconv.Itoa(limit))
	for _, w := range []float64{cfg.Word, cfg.Definitions, cfg.Synonyms, cfg.Text, cfg.Encyclopedia, cfg.MinScore} {
		var buf [8]byte
		bits := math.Float64bits(w)
		for i := 0; i < 8; i++ {
			buf[i] = byte(bits >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

// SearchFuzzy returns up to limit results, sorted by descending score with a
// deterministic tie-break, plus whether this call hit the result cache.
func (r *Ranker) SearchFuzzy(query string, cfg config.FuzzyWeights, limit int) ([]SearchResult, bool) {
	if query == "" || limit <= 0 {
		return nil, false
	}
	if !anyPositiveWeight(cfg) {
		return nil, false
	}

	key := CacheKey(query, cfg, limit)
	if cached, ok := r.cache.Get(key); ok {
		out := make([]SearchResult, len(cached))
		copy(out, cached)
		return out, true
	}

	results := r.computeTopK(query, cfg, limit)
	r.cache.Add(key, results)
	out := make([]SearchResult, len(results))
	copy(out, results)
	return out, false
}

func anyPositiveWeight(cfg config.FuzzyWeights) bool {
	return cfg.Word > 0 || cfg.Definitions > 0 || cfg.Synonyms > 0 || cfg.Text > 0 || cfg.Encyclopedia > 0
}

func (r *Ranker) computeTopK(query string, cfg config.FuzzyWeights, limit int) []SearchResult {
	n := r.provider.Count()
	if n == 0 {
		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	heaps := make([]*boundedHeap, workers)
	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			heaps[w] = newBoundedHeap(limit)
			continue
		}
		g.Go(func() error {
			h := newBoundedHeap(limit)
			for id := start; id < end; id++ {
				f := r.provider.Fields(uint32(id))
				s := score(query, f, cfg)
				if s < cfg.MinScore {
					continue
				}
				h.offer(heapItem{Score: s, LexemeID: f.LexemeID, Word: f.Word})
			}
			heaps[w] = h
			return nil
		})
	}
	_ = g.Wait()

	merged := mergeHeaps(heaps)
	items := merged.drainSorted()

	if limit < len(items) {
		items = items[:limit]
	}
	out := make([]SearchResult, len(items))
	for i, it := range items {
		out[i] = SearchResult{LexemeID: it.LexemeID, Word: it.Word, Score: it.Score}
	}
	return out
}

// ExplainField is one field's contribution, reported by ExplainSearch.
type ExplainField struct {
	Name   string
	Score  float64
	Weight float64
	Sample string
}

// ExplainResult reports every contributing field alongside the total score,
// which must equal the corresponding SearchResult.Score exactly.
type ExplainResult struct {
	LexemeID uint32
	Word     string
	Total    float64
	Fields   []ExplainField

	// SecondaryWordSimilarity is an auxiliary Jaro-Winkler signal (via
	// go-edlib) between the query and the word, surfaced only here as a
	// diagnostic — it never contributes to Total, so the explain-agreement
	// invariant in spec.md §8 always holds.
	SecondaryWordSimilarity float64
}

const explainTruncation = 96

// ExplainSearch recomputes the score for each of the given lexeme ids,
// recording every contributing field's score, weight, and a truncated
// sample.
func (r *Ranker) ExplainSearch(query string, cfg config.FuzzyWeights, lexemeIDs []uint32) []ExplainResult {
	out := make([]ExplainResult, 0, len(lexemeIDs))
	for _, id := range lexemeIDs {
		f := r.provider.Fields(id)
		var total, den float64
		var contributions []ExplainField
		for _, fl := range fields(query, cfg) {
			if fl.weight <= 0 {
				continue
			}
			v, sample := fl.score(query, f)
			total += v * fl.weight
			den += fl.weight
			contributions = append(contributions, ExplainField{
				Name:   fl.name,
				Score:  v,
				Weight: fl.weight,
				Sample: truncateSample(sample),
			})
		}
		finalScore := 0.0
		if den > 0 {
			finalScore = total / den
		}

		secondary, _ := edlib.StringsSimilarity(query, f.Word, edlib.JaroWinkler)

		out = append(out, ExplainResult{
			LexemeID:                f.LexemeID,
			Word:                    f.Word,
			Total:                   finalScore,
			Fields:                  contributions,
			SecondaryWordSimilarity: float64(secondary),
		})
	}
	return out
}

func truncateSample(s string) string {
	r := []rune(s)
	if len(r) <= explainTruncation {
		return s
	}
	return string(r[:explainTruncation]) + "…"
}

// heapItem is one candidate held in a boundedHeap.
type heapItem struct {
	Score    float64
	LexemeID uint32
	Word     string
}

// boundedHeap is a min-at-root heap capped at a fixed capacity: push while
// under capacity, otherwise replace the root only if the candidate strictly
// beats it. Root ordering ties on lexeme_id descending (the item with the
// larger id is considered "worse" and evicted first on a tie), per spec.md
// §9's fixed tie-break direction.
type boundedHeap struct {
	cap   int
	items []heapItem
}

func newBoundedHeap(capacity int) *boundedHeap {
	if capacity < 1 {
		capacity = 1
	}
	return &boundedHeap{cap: capacity}
}

func (h *boundedHeap) Len() int { return len(h.items) }
func (h *boundedHeap) Less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.LexemeID > b.LexemeID
}
func (h *boundedHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *boundedHeap) Push(x interface{}) {
	h.items = append(h.items, x.(heapItem))
}
func (h *boundedHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

func (h *boundedHeap) offer(candidate heapItem) {
	if h.Len() < h.cap {
		heap.Push(h, candidate)
		return
	}
	root := h.items[0]
	if beats(candidate, root) {
		h.items[0] = candidate
		heap.Fix(h, 0)
	}
}

// beats reports whether a should unconditionally replace b as the weakest
// member of the heap: a strictly higher score, or an equal score with a
// strictly smaller lexeme_id.
func beats(a, b heapItem) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.LexemeID < b.LexemeID
}

// mergeHeaps pairwise-merges smaller into larger under the same bounded
// rule, per spec.md §4.6.
func mergeHeaps(heaps []*boundedHeap) *boundedHeap {
	if len(heaps) == 0 {
		return newBoundedHeap(1)
	}
	result := heaps[0]
	for _, h := range heaps[1:] {
		if h.Len() > result.Len() {
			result, h = h, result
		}
		for _, it := range h.items {
			result.offer(it)
		}
	}
	return result
}

func (h *boundedHeap) drainSorted() []heapItem {
	items := make([]heapItem, len(h.items))
	copy(items, h.items)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].LexemeID < items[j].LexemeID
	})
	return items
}

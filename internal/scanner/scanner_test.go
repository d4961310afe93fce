package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/opengloss/internal/fstindex"
)

func sampleWords() []fstindex.WordID {
	words := []string{"bigraph", "bio", "biography", "biology", "cat", "dog", "graph", "photograph"}
	out := make([]fstindex.WordID, len(words))
	for i, w := range words {
		out[i] = fstindex.WordID{Word: w, LexemeID: uint32(i)}
	}
	return out
}

func TestSearchContainsFiltersAndCaps(t *testing.T) {
	s := New(sampleWords(), 64)
	hits, hit := s.SearchContains("graph", 5)
	require.False(t, hit)
	require.Len(t, hits, 4) // bigraph, biography, graph, photograph
	for _, h := range hits {
		require.Contains(t, h.Word, "graph")
	}
}

func TestSearchContainsEmptyPattern(t *testing.T) {
	s := New(sampleWords(), 64)
	hits, hit := s.SearchContains("", 10)
	require.Nil(t, hits)
	require.False(t, hit)
}

func TestSearchContainsCacheHit(t *testing.T) {
	s := New(sampleWords(), 64)
	first, hit := s.SearchContains("bio", 10)
	require.False(t, hit)
	require.Len(t, first, 3)

	second, hit := s.SearchContains("bio", 10)
	require.True(t, hit)
	require.Equal(t, first, second)

	smaller, hit := s.SearchContains("bio", 1)
	require.True(t, hit)
	require.Len(t, smaller, 1)
	require.Equal(t, first[0], smaller[0])
}

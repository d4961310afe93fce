package fstindex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSample(t *testing.T) *Index {
	t.Helper()
	b, err := NewBuilder()
	require.NoError(t, err)

	words := []string{"biology", "bird", "cat", "dog", "dogma", "graph", "photograph"}
	for i, w := range words {
		require.NoError(t, b.Insert(w, uint32(i)))
	}
	data, err := b.Finish()
	require.NoError(t, err)

	idx, err := Load(data)
	require.NoError(t, err)
	return idx
}

func TestGetExact(t *testing.T) {
	idx := buildSample(t)
	id, ok := idx.Get("dog")
	require.True(t, ok)
	require.Equal(t, uint32(3), id)

	_, ok = idx.Get("nope")
	require.False(t, ok)
}

func TestPrefixOrderedAndBounded(t *testing.T) {
	idx := buildSample(t)
	results := idx.Prefix("dog", 10)
	require.Len(t, results, 2)
	require.Equal(t, "dog", results[0].Word)
	require.Equal(t, "dogma", results[1].Word)

	limited := idx.Prefix("d", 1)
	require.Len(t, limited, 1)
	require.Equal(t, "dog", limited[0].Word)
}

func TestAllWordsSorted(t *testing.T) {
	idx := buildSample(t)
	all := idx.AllWords()
	require.Len(t, all, 7)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Word, all[i].Word)
	}
}
